package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-clubs/app/service"
	"github.com/vibast-solutions/ms-go-clubs/config"

	"github.com/sirupsen/logrus"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", FrontendURL: "https://clubs.example.com"},
		JWT: config.JWTConfig{
			Secret:          "secret",
			RefreshSecret:   "refresh-secret",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		Log: config.LogConfig{Level: "debug", Format: "text"},
	}
}

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.JSONFormatter{})
	})

	cfg := testConfig()
	if err := configureLogging(cfg); err != nil {
		t.Fatalf("configure failed: %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", logrus.GetLevel())
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected text formatter")
	}

	cfg.Log.Level = "loud"
	if err := configureLogging(cfg); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestRegisterRoutes(t *testing.T) {
	cfg := testConfig()
	issuer := service.NewTokenIssuer(cfg)
	e := newHTTPServer(cfg,
		service.NewAuthService(nil, issuer, &service.LogMailer{}, cfg),
		service.NewUserService(nil, issuer, service.PassthroughResolver{}, cfg),
	)

	want := map[string]bool{
		"POST /register":                   false,
		"POST /login":                      false,
		"POST /logout":                     false,
		"POST /forgot-password":            false,
		"POST /reset-password":             false,
		"GET /verify-account":              false,
		"POST /request-verification-token": false,
		"GET /users/me":                    false,
		"PUT /users/me":                    false,
		"DELETE /users/me":                 false,
		"PUT /users/me/password":           false,
	}
	for _, route := range e.Routes() {
		key := route.Method + " " + route.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, found := range want {
		if !found {
			t.Fatalf("route %s not registered", route)
		}
	}
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	cfg := testConfig()
	issuer := service.NewTokenIssuer(cfg)
	e := newHTTPServer(cfg,
		service.NewAuthService(nil, issuer, &service.LogMailer{}, cfg),
		service.NewUserService(nil, issuer, service.PassthroughResolver{}, cfg),
	)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestCORSAllowsFrontendWithCredentials(t *testing.T) {
	cfg := testConfig()
	issuer := service.NewTokenIssuer(cfg)
	e := newHTTPServer(cfg,
		service.NewAuthService(nil, issuer, &service.LogMailer{}, cfg),
		service.NewUserService(nil, issuer, service.PassthroughResolver{}, cfg),
	)

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://clubs.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://clubs.example.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials to be allowed")
	}
}
