package subscriptions_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gfornaciari/ebook-subscribe-api/internal/models"
	"github.com/gfornaciari/ebook-subscribe-api/internal/services/subscriptions"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Upsert(ctx context.Context, email, name string) error {
	return m.Called(ctx, email, name).Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Configured() bool {
	return m.Called().Bool(0)
}

func (m *mockMailer) Send(ctx context.Context, msg models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mockBuilder struct {
	mock.Mock
}

func (m *mockBuilder) BuildWelcomeEmail(name string) (models.WelcomeEmail, error) {
	args := m.Called(name)
	return args.Get(0).(models.WelcomeEmail), args.Error(1) //nolint:forcetypeassert
}

type countingRecorder struct {
	upserts   []error
	emails    []error
	technical []string
}

func (r *countingRecorder) RecordUpsert(err error)       { r.upserts = append(r.upserts, err) }
func (r *countingRecorder) RecordWelcomeEmail(err error) { r.emails = append(r.emails, err) }

func (r *countingRecorder) RecordTechnicalError(errType, severity string) {
	r.technical = append(r.technical, errType+"/"+severity)
}

var (
	ada     = models.SignUp{Name: "Ada", Email: "ada@example.com"}
	welcome = models.WelcomeEmail{Subject: "Finally Ada!", Text: "Welcome Ada!!", HTML: "<p>Welcome Ada!!</p>"}
)

func TestService_Subscribe(t *testing.T) {
	storeErr := errors.New("store down")
	sendErr := errors.New("relay down")
	renderErr := errors.New("template broken")

	cases := []struct {
		name       string
		setup      func(r *mockRepo, ml *mockMailer, b *mockBuilder)
		wantErr       error
		wantEmails    int
		wantTechnical []string
	}{
		{
			name: "success",
			setup: func(r *mockRepo, ml *mockMailer, b *mockBuilder) {
				r.On("Upsert", mock.Anything, "ada@example.com", "Ada").Return(nil).Once()
				ml.On("Configured").Return(true).Once()
				b.On("BuildWelcomeEmail", "Ada").Return(welcome, nil).Once()
				ml.On("Send", mock.Anything, models.Message{
					To:      "ada@example.com",
					Subject: welcome.Subject,
					Text:    welcome.Text,
					HTML:    welcome.HTML,
				}).Return(nil).Once()
			},
			wantEmails: 1,
		},
		{
			name: "store failure skips the email",
			setup: func(r *mockRepo, _ *mockMailer, _ *mockBuilder) {
				r.On("Upsert", mock.Anything, "ada@example.com", "Ada").Return(storeErr).Once()
			},
			wantErr:       storeErr,
			wantTechnical: []string{"store/critical"},
		},
		{
			name: "missing smtp config keeps the record",
			setup: func(r *mockRepo, ml *mockMailer, _ *mockBuilder) {
				r.On("Upsert", mock.Anything, "ada@example.com", "Ada").Return(nil).Once()
				ml.On("Configured").Return(false).Once()
			},
			wantErr:       subscriptions.ErrSMTPConfigMissing,
			wantEmails:    1,
			wantTechnical: []string{"smtp_config/critical"},
		},
		{
			name: "render failure",
			setup: func(r *mockRepo, ml *mockMailer, b *mockBuilder) {
				r.On("Upsert", mock.Anything, "ada@example.com", "Ada").Return(nil).Once()
				ml.On("Configured").Return(true).Once()
				b.On("BuildWelcomeEmail", "Ada").Return(models.WelcomeEmail{}, renderErr).Once()
			},
			wantErr:       renderErr,
			wantEmails:    1,
			wantTechnical: []string{"template/error"},
		},
		{
			name: "send failure",
			setup: func(r *mockRepo, ml *mockMailer, b *mockBuilder) {
				r.On("Upsert", mock.Anything, "ada@example.com", "Ada").Return(nil).Once()
				ml.On("Configured").Return(true).Once()
				b.On("BuildWelcomeEmail", "Ada").Return(welcome, nil).Once()
				ml.On("Send", mock.Anything, mock.Anything).Return(sendErr).Once()
			},
			wantErr:       sendErr,
			wantEmails:    1,
			wantTechnical: []string{"mail/error"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &mockRepo{}
			ml := &mockMailer{}
			b := &mockBuilder{}
			rec := &countingRecorder{}
			tc.setup(r, ml, b)

			svc := subscriptions.NewService(r, ml, b, rec, zerolog.Nop())
			err := svc.Subscribe(context.Background(), ada)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, rec.upserts, 1)
			assert.Len(t, rec.emails, tc.wantEmails)
			assert.Equal(t, tc.wantTechnical, rec.technical)

			r.AssertExpectations(t)
			ml.AssertExpectations(t)
			b.AssertExpectations(t)
		})
	}
}
