package mailer

import "fmt"

// message is a rendered email ready for any transport.
type message struct {
	subject  string
	htmlBody string
	textBody string
}

func welcomeMessage(toEmail string) message {
	return message{
		subject: "Welcome to Zlatonn",
		htmlBody: fmt.Sprintf(`<p>Welcome to the Zlatonn website.</p>
                             <p>Your account has been created with email id: <b>%s</b></p>`, toEmail),
		textBody: fmt.Sprintf("Welcome to the Zlatonn website. Your account has been created with email id: %s", toEmail),
	}
}

func verifyOTPMessage(toName, toEmail, code string) message {
	return message{
		subject: "Account Verification OTP",
		htmlBody: fmt.Sprintf(`<p>Hello %s,</p>
                             <p>Your verification code for account <b>%s</b> is: <b>%s</b></p>
                             <p>This code will expire in 24 hours.</p>
                             <p>If you did not request this, please ignore this email.</p>`, toName, toEmail, code),
		textBody: fmt.Sprintf(`Hello %s,
                           Your verification code for account %s is: %s
                           This code will expire in 24 hours.
                           If you did not request this, please ignore this email.`, toName, toEmail, code),
	}
}

func resetOTPMessage(toName, toEmail, code string) message {
	return message{
		subject: "Password Reset OTP",
		htmlBody: fmt.Sprintf(`<p>Hello %s,</p>
                             <p>Your password reset code for account <b>%s</b> is: <b>%s</b></p>
                             <p>This code will expire in 15 minutes.</p>
                             <p>If you did not request this, please ignore this email.</p>`, toName, toEmail, code),
		textBody: fmt.Sprintf(`Hello %s,
                           Your password reset code for account %s is: %s
                           This code will expire in 15 minutes.
                           If you did not request this, please ignore this email.`, toName, toEmail, code),
	}
}
