package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/gfornaciari/ebook-subscribe-api/internal/middleware"
)

func corsRouter(allowed []string, hits *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", middleware.CORS(allowed))
	handler := func(c *gin.Context) {
		*hits++
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
	api.POST("/subscribe", handler)
	api.OPTIONS("/subscribe", handler)
	return r
}

func TestCORS(t *testing.T) {
	allowed := []string{"https://www.gianlucafornaciari.com"}

	cases := []struct {
		name       string
		method     string
		origin     string
		wantCode   int
		wantHits   int
		wantOrigin string
	}{
		{
			name:       "allowed origin",
			method:     http.MethodPost,
			origin:     "https://www.gianlucafornaciari.com",
			wantCode:   http.StatusOK,
			wantHits:   1,
			wantOrigin: "https://www.gianlucafornaciari.com",
		},
		{
			name:     "disallowed origin",
			method:   http.MethodPost,
			origin:   "https://evil.example",
			wantCode: http.StatusForbidden,
		},
		{
			name:     "no origin",
			method:   http.MethodPost,
			wantCode: http.StatusOK,
			wantHits: 1,
		},
		{
			name:       "preflight",
			method:     http.MethodOptions,
			origin:     "https://www.gianlucafornaciari.com",
			wantCode:   http.StatusNoContent,
			wantOrigin: "https://www.gianlucafornaciari.com",
		},
		{
			name:     "preflight from disallowed origin",
			method:   http.MethodOptions,
			origin:   "https://evil.example",
			wantCode: http.StatusForbidden,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hits := 0
			r := corsRouter(allowed, &hits)

			req := httptest.NewRequest(tc.method, "/api/subscribe", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			assert.Equal(t, tc.wantHits, hits)
			assert.Equal(t, tc.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tc.wantCode == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"Origin not allowed"}`, w.Body.String())
			}
		})
	}
}

func TestCORS_Wildcard(t *testing.T) {
	hits := 0
	r := corsRouter([]string{"*"}, &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://anywhere.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}
