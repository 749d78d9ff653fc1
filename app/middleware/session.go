package appMiddleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionIssuer = "travelx"

// SessionClaims is the signed payload of the session cookie.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type SessionOptions struct {
	Secret     []byte
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// IssueSessionToken signs a session ID with HS256, valid for ttl from now.
func IssueSessionToken(secret []byte, sessionID string, ttl time.Duration, now time.Time) (string, error) {
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken verifies the signature, issuer and expiry and returns the session ID.
func ParseSessionToken(secret []byte, token string) (string, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(sessionIssuer))
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.SessionID == "" {
		return "", errors.New("session token carries no session id")
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return claims.SessionID, nil
}

// Session resolves the visitor's session from a signed cookie, starting a new
// one when the cookie is missing, expired or forged. The cookie is reissued on
// every request so its lifetime slides with activity.
func Session(opts SessionOptions, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var sessionID string

			if c, err := r.Cookie(opts.CookieName); err == nil && c.Value != "" {
				sid, err := ParseSessionToken(opts.Secret, c.Value)
				if err != nil {
					logger.DebugContext(ctx, "Discarding invalid session cookie", slog.Any("error", err))
				}
				sessionID = sid
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			token, err := IssueSessionToken(opts.Secret, sessionID, opts.TTL, time.Now())
			if err != nil {
				logger.ErrorContext(ctx, "Failed to issue session cookie", slog.Any("error", err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     opts.CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(opts.TTL.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(WithSessionID(ctx, sessionID)))
		})
	}
}
