package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/urbanpulse/report-server/internal/models"
)

const testSecret = "test-secret"

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Actor", Actor(r.Context()))
	w.WriteHeader(http.StatusOK)
}

func TestRequireAuth(t *testing.T) {
	admin := models.User{ID: 7, Email: "admin@example.com", Role: models.RoleAdmin}
	valid, _, err := IssueToken(testSecret, admin, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	expired, _, _ := IssueToken(testSecret, admin, -time.Minute)
	forged, _, _ := IssueToken("other-secret", admin, time.Hour)

	tests := []struct {
		name   string
		header string
		want   int
		actor  string
	}{
		{"missing", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized, ""},
		{"valid", "Bearer " + valid, http.StatusOK, "admin@example.com"},
	}
	h := RequireAuth(testSecret)(http.HandlerFunc(okHandler))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.actor != "" && rec.Header().Get("X-Actor") != tt.actor {
				t.Errorf("actor = %q", rec.Header().Get("X-Actor"))
			}
		})
	}
}

func TestParseToken_Subject(t *testing.T) {
	tok, _, _ := IssueToken(testSecret, models.User{ID: 42, Email: "m@example.com", Role: models.RoleModerator}, time.Hour)
	claims, err := ParseToken(testSecret, tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID() != 42 || claims.Role != models.RoleModerator {
		t.Errorf("claims = %+v", claims)
	}
}

func TestRequireRole(t *testing.T) {
	citizen, _, _ := IssueToken(testSecret, models.User{ID: 1, Email: "c@example.com", Role: models.RoleCitizen}, time.Hour)
	admin, _, _ := IssueToken(testSecret, models.User{ID: 2, Email: "a@example.com", Role: models.RoleAdmin}, time.Hour)

	h := RequireAuth(testSecret)(RequireRole(models.RoleAdmin)(http.HandlerFunc(okHandler)))
	for token, want := range map[string]int{citizen: http.StatusForbidden, admin: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("status = %d, want %d", rec.Code, want)
		}
	}
}

func TestOptionalAuth(t *testing.T) {
	h := OptionalAuth(testSecret)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("X-Actor") != "anonymous" {
		t.Errorf("status = %d, actor = %q", rec.Code, rec.Header().Get("X-Actor"))
	}
}

func TestSession(t *testing.T) {
	var seen string
	h := Session()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" {
		t.Fatal("no session id issued")
	}
	if rec.Header().Get(SessionHeader) != seen {
		t.Error("session id not echoed in header")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != seen {
		t.Fatalf("cookies = %+v", cookies)
	}

	issued := seen
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != issued {
		t.Errorf("cookie session = %q, want %q", seen, issued)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("cookie reissued for a known session")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "not-a-uuid")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "not-a-uuid" {
		t.Error("malformed session id accepted")
	}
}

func TestRateLimit(t *testing.T) {
	stop := make(chan struct{})
	defer close(stop)
	h := RateLimit(2, stop)(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	// Another client has its own window.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("second client status = %d", rec.Code)
	}
}
