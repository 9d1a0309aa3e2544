package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// SMTPMailerService implements the Mailer interface using net/smtp.
type SMTPMailerService struct {
	host       string
	port       int
	username   string
	password   string
	from       string // The "From" address for the email header
	senderName string // The display name for the sender
	logger     *zap.Logger
}

// NewSMTPMailerService creates a new SMTPMailerService.
func NewSMTPMailerService(host string, port int, username, password, fromEmail, senderName string, logger *zap.Logger) *SMTPMailerService {
	return &SMTPMailerService{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		from:       fromEmail,
		senderName: senderName,
		logger:     logger.Named("SMTPMailerService"),
	}
}

func (s *SMTPMailerService) SendWelcome(toEmail, toName string) error {
	return s.send(toEmail, welcomeMessage(toEmail))
}

func (s *SMTPMailerService) SendVerifyOTP(toEmail, toName, code string) error {
	return s.send(toEmail, verifyOTPMessage(toName, toEmail, code))
}

func (s *SMTPMailerService) SendResetOTP(toEmail, toName, code string) error {
	return s.send(toEmail, resetOTPMessage(toName, toEmail, code))
}

func (s *SMTPMailerService) send(toEmailAddr string, msg message) error {
	s.logger.Info("Attempting to send email via SMTP",
		zap.String("toEmail", toEmailAddr),
		zap.String("subject", msg.subject),
		zap.String("smtpHost", s.host),
		zap.Int("smtpPort", s.port))

	// Setup SMTP authentication
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	// Email headers
	headers := make(map[string]string)
	if s.senderName != "" {
		headers["From"] = fmt.Sprintf("%s <%s>", s.senderName, s.from)
	} else {
		headers["From"] = s.from
	}
	headers["To"] = toEmailAddr
	headers["Subject"] = msg.subject
	headers["MIME-Version"] = "1.0"

	// Constructing a multipart message
	boundary := "my-boundary-12345" // Can be any unique string
	headers["Content-Type"] = fmt.Sprintf("multipart/alternative; boundary=%s", boundary)

	var msgBuilder strings.Builder

	// Write headers
	for k, v := range headers {
		msgBuilder.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msgBuilder.WriteString("\r\n") // Empty line separates headers from body

	// Plain text part
	msgBuilder.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msgBuilder.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msgBuilder.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	msgBuilder.WriteString(msg.textBody)
	msgBuilder.WriteString("\r\n\r\n")

	// HTML part
	msgBuilder.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msgBuilder.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msgBuilder.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	msgBuilder.WriteString(msg.htmlBody)
	msgBuilder.WriteString("\r\n\r\n")

	// End boundary
	msgBuilder.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	// SMTP server address
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	err := smtp.SendMail(addr, auth, s.from, []string{toEmailAddr}, []byte(msgBuilder.String()))
	if err != nil {
		s.logger.Error("Failed to send email via SMTP",
			zap.Error(err),
			zap.String("toEmail", toEmailAddr),
			zap.String("smtpHost", s.host))
		return fmt.Errorf("smtp.SendMail failed: %w", err)
	}

	s.logger.Info("Email sent successfully via SMTP", zap.String("toEmail", toEmailAddr), zap.String("subject", msg.subject))
	return nil
}
