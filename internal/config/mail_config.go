package config

import "time"

type MailConfig interface {
	GetMailDriver() string
	GetSmtpHost() string
	GetSmtpPort() int
	GetSmtpAccount() string
	GetSmtpPassword() string
	GetMailFrom() string
	GetMailTimeout() time.Duration
}

const (
	MailDriverLog  = "log"
	MailDriverSMTP = "smtp"
)

type Mail struct {
	Driver       string        `env:"MAIL_DRIVER" envDefault:"log"`
	SmtpHost     string        `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SmtpPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SmtpAccount  string        `env:"SMTP_ACCOUNT"`
	SmtpPassword string        `env:"SMTP_PASSWORD"`
	From         string        `env:"MAIL_FROM"`
	Timeout      time.Duration `env:"MAIL_TIMEOUT" envDefault:"10s"`
}

var _ MailConfig = Mail{}

func (m Mail) GetMailDriver() string {
	return m.Driver
}

func (m Mail) GetSmtpHost() string {
	return m.SmtpHost
}

func (m Mail) GetSmtpPort() int {
	return m.SmtpPort
}

func (m Mail) GetSmtpAccount() string {
	return m.SmtpAccount
}

func (m Mail) GetSmtpPassword() string {
	return m.SmtpPassword
}

// GetMailFrom falls back to the SMTP account when no sender address is configured
func (m Mail) GetMailFrom() string {
	if m.From == "" {
		return m.SmtpAccount
	}
	return m.From
}

func (m Mail) GetMailTimeout() time.Duration {
	return m.Timeout
}
