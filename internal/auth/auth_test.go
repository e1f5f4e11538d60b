package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inamate/planner/internal/store"
)

func newTestService() *Service {
	return NewService(store.NewMemoryStore(), "test-secret")
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	reg, err := svc.Register(ctx, "ada@example.com", "correct horse", "Ada")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.User.Email != "ada@example.com" || reg.Token == "" {
		t.Fatalf("register result = %+v", reg)
	}

	if _, err := svc.Register(ctx, "ada@example.com", "another one", "Ada 2"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate register: err = %v, want ErrEmailTaken", err)
	}

	login, err := svc.Login(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	userID, err := svc.ValidateToken(login.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != reg.User.ID {
		t.Errorf("token subject = %q, want %q", userID, reg.User.ID)
	}

	if _, err := svc.Login(ctx, "ada@example.com", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v", err)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	svc := newTestService()
	token, err := svc.issueToken("user_1")
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}

	other := NewService(store.NewMemoryStore(), "other-secret")
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with another secret was accepted")
	}

	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expired token was accepted")
	}
}

func TestMiddleware(t *testing.T) {
	svc := newTestService()
	token, _ := svc.issueToken("user_1")

	var seen string
	h := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/plans", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if seen != "user_1" {
		t.Errorf("user in context = %q", seen)
	}
}

func TestHandlerRegisterValidation(t *testing.T) {
	h := NewHandler(newTestService())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", "{", http.StatusBadRequest},
		{"missing fields", `{"email":"a@example.com"}`, http.StatusBadRequest},
		{"bad email", `{"email":"nope","password":"longenough","displayName":"A"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@example.com","password":"short","displayName":"A"}`, http.StatusBadRequest},
		{"ok", `{"email":"a@example.com","password":"longenough","displayName":"A"}`, http.StatusCreated},
		{"taken", `{"email":"a@example.com","password":"longenough","displayName":"A"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.Register(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestHandlerLoginAndMe(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Register(context.Background(), "ada@example.com", "correct horse", "Ada"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"email":"ada@example.com","password":"correct horse"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var result AuthResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+result.Token)
	rec = httptest.NewRecorder()
	svc.Middleware(http.HandlerFunc(h.Me)).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	var me User
	json.NewDecoder(rec.Body).Decode(&me)
	if me.DisplayName != "Ada" {
		t.Errorf("me = %+v", me)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"email":"ada@example.com","password":"nope nope"}`))
	rec = httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d", rec.Code)
	}
}
