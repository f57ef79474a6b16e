package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gfornaciari/ebook-subscribe-api/internal/models"
	"github.com/gfornaciari/ebook-subscribe-api/internal/services/subscriptions"
	"github.com/gfornaciari/ebook-subscribe-api/internal/validator"
)

const (
	msgRequired     = "Name and email are required"
	msgInvalidEmail = "Invalid email address"
	msgSMTPMissing  = "SMTP configuration missing"
	msgFlowFailed   = "Subscription flow failed"
	msgSubscribed   = "Subscribed and email sent"

	errorKey   = "error"
	messageKey = "message"
	fieldName  = "name"
	fieldEmail = "email"

	defaultTimeout = 30 * time.Second

	errTypeMalformedBody = "malformed_body"
	errTypeMissingFields = "missing_fields"
	errTypeInvalidEmail  = "invalid_email"
)

var (
	ErrNameAndEmailRequired = errors.New("name and email are required")
	ErrInvalidEmail         = errors.New("invalid email address")
	errMalformedBody        = errors.New("request body is not a valid JSON object")
)

type subscriber interface {
	Subscribe(ctx context.Context, signUp models.SignUp) error
}

type errorRecorder interface {
	RecordBusinessError(errType string)
}

type Handler struct {
	Service subscriber
	m       errorRecorder
	timeout time.Duration
	log     zerolog.Logger
}

func NewHandler(svc subscriber, m errorRecorder, timeout time.Duration, logger zerolog.Logger) *Handler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger = logger.With().Str("component", "SubscriptionHandler").Logger()
	return &Handler{Service: svc, m: m, timeout: timeout, log: logger}
}

// SubscribeRequest documents the accepted body. Both fields accept any JSON value;
// non-string names are stringified.
type SubscribeRequest struct {
	Name  string `json:"name"  example:"Ada"`
	Email string `json:"email" example:"ada@example.com"`
}

type MessageResponse struct {
	Message string `json:"message" example:"Subscribed and email sent"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"Invalid email address"`
}

// Subscribe
// @Summary Sign up for the newsletter and receive the ebook
// @Description Stores the subscriber (upsert by email) and sends the welcome email with the ebook link.
// @Tags subscription
// @Accept json
// @Produce json
// @Param request body SubscribeRequest true "Name and email of the subscriber"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, msgFlowFailed, err)
		return
	}

	// json.Unmarshal rejects trailing data after the first value.
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		h.m.RecordBusinessError(errTypeMalformedBody)
		h.fail(c, http.StatusInternalServerError, msgFlowFailed, errors.Join(errMalformedBody, err))
		return
	}

	signUp, err := parseSignUp(body)
	switch {
	case errors.Is(err, ErrNameAndEmailRequired):
		h.m.RecordBusinessError(errTypeMissingFields)
		h.fail(c, http.StatusBadRequest, msgRequired, err)
		return
	case errors.Is(err, ErrInvalidEmail):
		h.m.RecordBusinessError(errTypeInvalidEmail)
		h.fail(c, http.StatusBadRequest, msgInvalidEmail, err)
		return
	case err != nil:
		h.m.RecordBusinessError(errTypeMalformedBody)
		h.fail(c, http.StatusInternalServerError, msgFlowFailed, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.Service.Subscribe(ctx, signUp); err != nil {
		if errors.Is(err, subscriptions.ErrSMTPConfigMissing) {
			h.fail(c, http.StatusInternalServerError, msgSMTPMissing, err)
			return
		}
		h.fail(c, http.StatusInternalServerError, msgFlowFailed, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{messageKey: msgSubscribed})
}

// Preflight
// @Summary CORS preflight for the subscribe endpoint
// @Tags subscription
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Router /api/subscribe [options]
func (h *Handler) Preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *Handler) fail(c *gin.Context, status int, msg string, err error) {
	_ = c.Error(err)
	ev := h.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = h.log.Error()
	}
	ev.Err(err).Ctx(c.Request.Context()).Int("status", status).Msg(msg)
	c.JSON(status, gin.H{errorKey: msg})
}

// parseSignUp checks presence and format on the raw values and normalizes the accepted ones.
func parseSignUp(body any) (models.SignUp, error) {
	if body == nil {
		return models.SignUp{}, errMalformedBody
	}

	fields, ok := body.(map[string]any)
	if !ok {
		// primitives and arrays carry no fields
		return models.SignUp{}, ErrNameAndEmailRequired
	}

	name, email := fields[fieldName], fields[fieldEmail]
	if isFalsy(name) || isFalsy(email) {
		return models.SignUp{}, ErrNameAndEmailRequired
	}

	rawEmail, ok := email.(string)
	if !ok || !validator.IsValidEmail(rawEmail) {
		return models.SignUp{}, ErrInvalidEmail
	}

	return models.SignUp{
		Name:  truncate(strings.TrimSpace(stringify(name)), models.MaxNameLength),
		Email: strings.ToLower(strings.TrimSpace(rawEmail)),
	}, nil
}
