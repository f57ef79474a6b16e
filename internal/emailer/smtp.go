package emailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"github.com/gfornaciari/ebook-subscribe-api/internal/config"
	"github.com/gfornaciari/ebook-subscribe-api/internal/models"
)

const (
	TLSModeStartTLS = "starttls"
	TLSModeImplicit = "tls"
	TLSModeNone     = "none"
)

// SMTPService delivers messages through an authenticated SMTP relay.
type SMTPService struct {
	cfg   config.SMTP
	audit *zap.Logger
	log   zerolog.Logger
	now   func() time.Time
}

func NewSMTPService(cfg config.SMTP, audit *zap.Logger, logger zerolog.Logger) *SMTPService {
	logger = logger.With().Str("component", "SMTPService").Logger()
	if audit == nil {
		audit = zap.NewNop()
	}

	svc := &SMTPService{cfg: cfg, audit: audit, log: logger, now: time.Now}
	if !svc.Configured() {
		logger.Warn().
			Str("host", cfg.Host).
			Bool("username_set", cfg.Username != "").
			Bool("password_set", cfg.Password != "").
			Bool("sender_set", cfg.From != "").
			Msg("SMTP credentials are not fully set")
	}
	return svc
}

// Configured reports whether credentials and a sender address are present.
func (s *SMTPService) Configured() bool {
	return s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

// Send delivers msg to msg.To and, when set, to the admin BCC address as an envelope-only recipient.
func (s *SMTPService) Send(ctx context.Context, msg models.Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	start := time.Now()
	err := s.send(ctx, msg)
	s.record(ctx, msg, time.Since(start), err)
	return err
}

func (s *SMTPService) send(ctx context.Context, msg models.Message) error {
	from := &mail.Address{Name: s.cfg.FromName, Address: s.cfg.From}
	body, err := composeMessage(from, msg, s.now())
	if err != nil {
		return NewMailError("compose", err)
	}

	c, err := s.dial(ctx)
	if err != nil {
		return NewMailError("dial", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			s.log.Debug().Err(err).Msg("smtp connection close")
		}
	}()

	timeout := s.cfg.TimeoutDuration()
	c.CommandTimeout = timeout
	c.SubmissionTimeout = timeout

	if err := c.Auth(sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)); err != nil {
		return NewMailError("auth", err)
	}

	rcpts := []string{msg.To}
	if s.cfg.Bcc != "" {
		rcpts = append(rcpts, s.cfg.Bcc)
	}

	if err := c.SendMail(s.cfg.From, rcpts, bytes.NewReader(body)); err != nil {
		return NewMailError("send", err)
	}

	if err := c.Quit(); err != nil {
		s.log.Debug().Err(err).Msg("smtp quit")
	}
	return nil
}

func (s *SMTPService) dial(ctx context.Context) (*smtp.Client, error) {
	d := net.Dialer{Timeout: s.cfg.TimeoutDuration()}
	conn, err := d.DialContext(ctx, "tcp", s.cfg.Address())
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}

	switch s.cfg.TLSMode {
	case TLSModeNone:
		return smtp.NewClient(conn), nil
	case TLSModeImplicit:
		return smtp.NewClient(tls.Client(conn, tlsConfig)), nil
	default:
		c, err := smtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return c, nil
	}
}

func (s *SMTPService) record(ctx context.Context, msg models.Message, dur time.Duration, err error) {
	fields := []zap.Field{
		zap.String("to", msg.To),
		zap.Bool("bcc", s.cfg.Bcc != ""),
		zap.String("subject", msg.Subject),
		zap.Duration("duration", dur),
	}
	if err != nil {
		s.audit.Error("welcome email failed", append(fields, zap.Error(err))...)
		s.log.Error().Err(err).Ctx(ctx).Str("to", msg.To).Dur("duration", dur).Msg("failed to send email")
		return
	}
	s.audit.Info("welcome email sent", fields...)
	s.log.Info().Ctx(ctx).Str("to", msg.To).Dur("duration", dur).Msg("email sent")
}
