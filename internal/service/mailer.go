// Package service contains stuff related to the background processing
// of the application
package service

import (
	"fmt"
	"thevideopool/pool-api/internal/model"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Mailer sends a single email. The SMTP implementation is the only
// real one, tests swap in a recorder
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer() *SMTPMailer {
	from := viper.GetString("mail.sender")

	return &SMTPMailer{
		from: from,
		dialer: gomail.NewDialer(
			viper.GetString("mail.host"),
			viper.GetInt("mail.port"),
			from,
			viper.GetString("mail.password"),
		),
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	if to == m.from {
		return fmt.Errorf("invalid recipient address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}

// SendVerificationMail mails the account activation link for a fresh
// registration
func SendVerificationMail(m Mailer, t *model.VerificationToken, sendTo string) error {
	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	verifLink := fmt.Sprintf("%v://%v/verify?user_id=%v&token=%v",
		scheme, viper.GetString("host.domain"), t.UserID, t.Token)

	body := fmt.Sprintf("Click <a href='%v'>here</a> to verify your TheVideoPool account.\n\nThis link will expire in 30 minutes", verifLink)

	return m.Send(sendTo, "Verify your email to start using TheVideoPool", body)
}
