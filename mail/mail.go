// Package mail delivers one-time codes by SMTP, or to the log in development.
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/event-auth-server/otp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	gomail "github.com/wneessen/go-mail"
)

const otpSubject = "Verification code (OTP)"

// OTPBody renders the plain text body of a verification email
func OTPBody(code string, lifetime time.Duration) string {
	return fmt.Sprintf(`Hello,

Your verification code (OTP) is: %s

This code is valid for %d minutes.

If you did not request this code, you can ignore this email.
`, code, int(lifetime.Minutes()))
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends codes through an authenticated SMTP server using STARTTLS
type SMTPSender struct {
	config SMTPConfig
	dial   func(ctx context.Context, msg *gomail.Msg) error
}

var _ otp.Sender = (*SMTPSender)(nil)

func NewSMTPSender(config SMTPConfig) (*SMTPSender, error) {
	if config.Host == "" {
		return nil, errors.New("[mail NewSMTPSender] SMTP host is required")
	}
	if config.From == "" {
		return nil, errors.New("[mail NewSMTPSender] sender address is required")
	}
	s := &SMTPSender{config: config}
	s.dial = s.dialAndSend
	return s, nil
}

func (s *SMTPSender) SendOTP(ctx context.Context, to, code string, lifetime time.Duration) error {
	msg, err := s.message(to, code, lifetime)
	if err != nil {
		return err
	}
	if err := s.dial(ctx, msg); err != nil {
		log.Err(err).Str("to", to).Msg("failed to send OTP email")
		return errors.Wrap(err, "SMTPSender.SendOTP")
	}
	log.Info().Str("to", to).Msg("OTP email sent")
	return nil
}

func (s *SMTPSender) message(to, code string, lifetime time.Duration) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.config.From); err != nil {
		return nil, errors.Wrap(err, "SMTPSender.message from")
	}
	if err := msg.To(to); err != nil {
		return nil, errors.Wrap(err, "SMTPSender.message to")
	}
	msg.Subject(otpSubject)
	msg.SetBodyString(gomail.TypeTextPlain, OTPBody(code, lifetime))
	return msg, nil
}

func (s *SMTPSender) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	opts := []gomail.Option{
		gomail.WithPort(s.config.Port),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
	}
	if s.config.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.config.Username),
			gomail.WithPassword(s.config.Password),
		)
	}
	client, err := gomail.NewClient(s.config.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// LogSender writes codes to the log instead of sending them
type LogSender struct{}

var _ otp.Sender = LogSender{}

func (LogSender) SendOTP(ctx context.Context, to, code string, lifetime time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Info().Str("to", to).Str("otp", code).Dur("lifetime", lifetime).Msg("OTP delivery (log driver)")
	return nil
}
