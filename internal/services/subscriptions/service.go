package subscriptions

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gfornaciari/ebook-subscribe-api/internal/models"
)

type SubscriberRepository interface {
	Upsert(ctx context.Context, email, name string) error
}

type Mailer interface {
	Configured() bool
	Send(ctx context.Context, msg models.Message) error
}

type WelcomeBuilder interface {
	BuildWelcomeEmail(name string) (models.WelcomeEmail, error)
}

const (
	errTypeStore      = "store"
	errTypeSMTPConfig = "smtp_config"
	errTypeTemplate   = "template"
	errTypeMail       = "mail"

	severityCritical = "critical"
	severityError    = "error"
)

type recorder interface {
	RecordUpsert(err error)
	RecordWelcomeEmail(err error)
	RecordTechnicalError(errType, severity string)
}

type Service struct {
	repo    SubscriberRepository
	mailer  Mailer
	builder WelcomeBuilder
	m       recorder
	log     zerolog.Logger
}

func NewService(
	repo SubscriberRepository,
	mailer Mailer,
	builder WelcomeBuilder,
	m recorder,
	logger zerolog.Logger,
) *Service {
	logger = logger.With().Str("component", "SubscriptionService").Logger()
	return &Service{
		repo:    repo,
		mailer:  mailer,
		builder: builder,
		m:       m,
		log:     logger,
	}
}

// Subscribe stores the sign-up and sends the welcome email.
// The stored record is kept when the email cannot be sent.
func (s *Service) Subscribe(ctx context.Context, signUp models.SignUp) error {
	err := s.repo.Upsert(ctx, signUp.Email, signUp.Name)
	s.m.RecordUpsert(err)
	if err != nil {
		s.m.RecordTechnicalError(errTypeStore, severityCritical)
		return err
	}

	if !s.mailer.Configured() {
		s.log.Warn().Ctx(ctx).
			Str("email", signUp.Email).
			Msg("subscriber stored but SMTP is not configured, welcome email not sent")
		s.m.RecordWelcomeEmail(ErrSMTPConfigMissing)
		s.m.RecordTechnicalError(errTypeSMTPConfig, severityCritical)
		return ErrSMTPConfigMissing
	}

	welcome, err := s.builder.BuildWelcomeEmail(signUp.Name)
	if err != nil {
		s.log.Error().Err(err).Ctx(ctx).Msg("failed to render welcome email")
		s.m.RecordWelcomeEmail(err)
		s.m.RecordTechnicalError(errTypeTemplate, severityError)
		return err
	}

	err = s.mailer.Send(ctx, models.Message{
		To:      signUp.Email,
		Subject: welcome.Subject,
		Text:    welcome.Text,
		HTML:    welcome.HTML,
	})
	s.m.RecordWelcomeEmail(err)
	if err != nil {
		s.m.RecordTechnicalError(errTypeMail, severityError)
		s.log.Warn().Err(err).Ctx(ctx).
			Str("email", signUp.Email).
			Msg("subscriber stored but welcome email failed")
		return err
	}

	s.log.Info().Ctx(ctx).Str("email", signUp.Email).Msg("subscriber welcomed")
	return nil
}
