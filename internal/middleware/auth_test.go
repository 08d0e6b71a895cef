package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/goalstash/goalstash/internal/ctxkeys"
	"github.com/goalstash/goalstash/internal/db"
	"github.com/goalstash/goalstash/internal/model"
	"github.com/goalstash/goalstash/internal/repository"
)

const testSecret = "test-secret"

func newVerifierWithUser(t *testing.T) (*Verifier, *model.User) {
	t.Helper()

	database := db.MustOpenTest(t)
	userRepo := repository.NewUserRepository(database)
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     "auth@example.com",
		CreatedAt: time.Now(),
	}
	if err := userRepo.Create(user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return NewVerifier(testSecret, userRepo), user
}

func signToken(t *testing.T, secret, userID string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthResolvesValidToken(t *testing.T) {
	verifier, user := newVerifierWithUser(t)

	var got *model.User
	handler := Auth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ctxkeys.User(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signToken(t, testSecret, user.ID)})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != user.ID {
		t.Fatalf("context user = %+v, want %s", got, user.ID)
	}
}

func TestAuthContinuesWithoutCookie(t *testing.T) {
	verifier, _ := newVerifierWithUser(t)

	var got *model.User
	called := false
	handler := Auth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got = ctxkeys.User(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !called {
		t.Fatal("next handler not called without a cookie")
	}
	if got != nil {
		t.Fatalf("context user = %+v, want nil", got)
	}
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	verifier, user := newVerifierWithUser(t)

	var got *model.User
	handler := Auth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ctxkeys.User(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signToken(t, "other-secret", user.ID)})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != nil {
		t.Fatalf("context user = %+v for a forged token, want nil", got)
	}
}

func TestRequireAuth(t *testing.T) {
	called := false
	handler := RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d without a user, want 401", rec.Code)
	}
	if called {
		t.Fatal("protected handler ran without a user")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ctxkeys.WithUser(req.Context(), &model.User{ID: "u"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("status = %d with a user, want 200 and handler called", rec.Code)
	}
}
