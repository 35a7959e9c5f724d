package auth

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"

	"github.com/jordan-wright/email"
)

// Mailer delivers one-time codes to users.
type Mailer interface {
	SendOTP(to, code string) error
}

// SMTPMailer sends OTP mail through an SMTP relay.
type SMTPMailer struct {
	SenderName string
	Address    string
	Password   string
	Host       string
	Port       int
}

func NewSMTPMailer(senderName, address, password, host string, port int) *SMTPMailer {
	return &SMTPMailer{
		SenderName: senderName,
		Address:    address,
		Password:   password,
		Host:       host,
		Port:       port,
	}
}

var otpTemplate = template.Must(template.New("otp").Parse(
	"Your OTP is: {{.Code}}\n\nThis code expires in {{.ExpiryMinutes}} minutes.\n"))

func (m *SMTPMailer) SendOTP(to, code string) error {
	var body bytes.Buffer
	err := otpTemplate.Execute(&body, struct {
		Code          string
		ExpiryMinutes int
	}{code, int(OTPTTL.Minutes())})
	if err != nil {
		return err
	}

	msg := email.NewEmail()
	msg.From = fmt.Sprintf("%q <%s>", m.SenderName, m.Address)
	msg.To = []string{to}
	msg.Subject = "Your OTP Code"
	msg.Text = body.Bytes()

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	return msg.Send(addr, smtp.PlainAuth("", m.Address, m.Password, m.Host))
}
