// Package auth carries an anonymous per-browser identity in a signed cookie.
// It does not authenticate anyone: there are no accounts or passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf-coach/studycoach/internal/models"
)

const (
	CookieName = "studycoach_session"
	defaultTTL = 365 * 24 * time.Hour
)

type ctxKey struct{}

// WithUserID returns a context carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID extracts the session user id placed by Middleware.
func UserID(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(ctxKey{}).(string)
	return uid, ok && uid != ""
}

type Sessions struct {
	secret     []byte
	singleUser bool
	secure     bool
	ttl        time.Duration
	now        func() time.Time
}

// NewSessions signs identity cookies with secret. In single-user mode every
// request is attributed to models.LocalUser.
func NewSessions(secret []byte, singleUser, secureCookie bool) *Sessions {
	return &Sessions{secret: secret, singleUser: singleUser, secure: secureCookie, ttl: defaultTTL, now: time.Now}
}

// WithTTL sets how long issued cookies stay valid. Non-positive values are ignored.
func (s *Sessions) WithTTL(ttl time.Duration) *Sessions {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// Middleware resolves the caller's id from the session cookie, minting a new
// anonymous id when the cookie is missing or fails verification.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.singleUser {
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), models.LocalUser)))
			return
		}

		userID := ""
		if c, err := r.Cookie(CookieName); err == nil {
			uid, err := s.Verify(c.Value)
			if err != nil {
				log.Printf("[auth] WARN: discarding session cookie: %v", err)
			} else {
				userID = uid
			}
		}

		if userID == "" {
			userID = uuid.NewString()
			token, err := s.Sign(userID)
			if err != nil {
				log.Printf("[auth] failed to sign session: %v", err)
				http.Error(w, `{"error":"Failed to start session"}`, http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.secure,
				SameSite: http.SameSiteLaxMode,
				Expires:  s.now().Add(s.ttl),
			})
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func (s *Sessions) Sign(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify returns the subject of a valid token.
func (s *Sessions) Verify(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("parse session token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("session token has no subject")
	}
	return claims.Subject, nil
}
