package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/config"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(RequestIDHeader) == "" || rec.Body.String() != rec.Header().Get(RequestIDHeader) {
		t.Errorf("generated id not propagated: header=%q body=%q", rec.Header().Get(RequestIDHeader), rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	if rec := serve(r, req); rec.Body.String() != "my-custom-id" {
		t.Errorf("got %q, want my-custom-id", rec.Body.String())
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()))
	r.GET("/", func(*gin.Context) { panic("boom") })

	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: time.Hour,
		Issuer:          "test",
	})
	pair, err := jwtManager.GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Email: "p@example.com", Role: domain.RolePatient})
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	r := gin.New()
	r.Use(Authenticate(jwtManager))
	r.GET("/any", func(c *gin.Context) {
		caller, _ := CallerFrom(c)
		c.String(http.StatusOK, string(caller.Role))
	})
	r.GET("/doctors", RequireRole(domain.RoleDoctor, domain.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/any", "", http.StatusUnauthorized},
		{"not bearer", "/any", "Basic abc", http.StatusUnauthorized},
		{"refresh token rejected", "/any", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"access token", "/any", "Bearer " + pair.AccessToken, http.StatusOK},
		{"wrong role", "/doctors", "Bearer " + pair.AccessToken, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if rec := serve(r, req); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	l := NewIPRateLimiter(rate.Every(time.Hour), 2)
	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	if rec := serve(r, req); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}

	l.now = func() time.Time { return time.Now().Add(2 * limiterTTL) }
	l.Sweep()
	if n := len(l.clients); n != 0 {
		t.Errorf("%d buckets left after sweep", n)
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	m := metrics.NewCollector("test")
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/items/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/items/2", nil))

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "200")); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         time.Hour,
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := serve(r, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	if got := serve(r, req).Header().Get("Access-Control-Allow-Origin"); strings.TrimSpace(got) != "" {
		t.Errorf("unexpected allow origin %q", got)
	}
}
