package middleware

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/goalstash/goalstash/internal/ctxkeys"
	"github.com/goalstash/goalstash/internal/repository"
)

// Verifier resolves an auth token cookie to a user. Token minting lives in
// the surrounding identity layer; the core only needs the capability check
// in front of its operations.
type Verifier struct {
	secret   string
	userRepo repository.UserRepository
}

func NewVerifier(secret string, userRepo repository.UserRepository) *Verifier {
	return &Verifier{secret: secret, userRepo: userRepo}
}

func (v *Verifier) verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	return userID, nil
}

// Auth resolves the auth cookie (when present) and adds the user to the
// request context. Requests without a valid token continue unauthenticated.
func Auth(verifier *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("auth_token")
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := verifier.verify(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := verifier.userRepo.ByID(userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctxkeys.WithUser(r.Context(), user)))
		})
	}
}

// RequireAuth is the capability check in front of every core operation.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}
}
