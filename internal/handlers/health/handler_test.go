package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/gfornaciari/ebook-subscribe-api/internal/handlers/health"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func TestHealthz(t *testing.T) {
	cases := []struct {
		name     string
		pingErr  error
		wantCode int
		wantBody string
	}{
		{"store up", nil, http.StatusOK, `{"status":"ok"}`},
		{"store down", errors.New("no reachable servers"), http.StatusServiceUnavailable, `{"status":"unavailable"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.GET("/healthz", health.NewHandler(stubPinger{err: tc.pingErr}, zerolog.Nop()).Healthz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tc.wantCode, w.Code)
			assert.JSONEq(t, tc.wantBody, w.Body.String())
		})
	}
}
