package mailer

// Mailer defines the interface for sending account emails.
type Mailer interface {
	SendWelcome(toEmail, toName string) error
	SendVerifyOTP(toEmail, toName, code string) error
	SendResetOTP(toEmail, toName, code string) error
}
