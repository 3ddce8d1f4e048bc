// internal/httpserver/auth.go
//
// Anonymous client identity.
// Responsibilities:
//   - POST /auth/anon: issue (or refresh) an HS256 token whose subject is a client uuid.
//   - Optional auth: resolve the client id from bearer header or cookie; never 401.
//   - Cookie attributes follow PRODUCTION (Secure + SameSite=None) like the other settings.

package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuthConfig holds token and cookie settings.
type AuthConfig struct {
	Secret      string
	ExpiresDays int
	CookieName  string
	Production  bool // Secure + SameSite=None cookies
}

func (a AuthConfig) withDefaults() AuthConfig {
	if a.Secret == "" {
		a.Secret = "dev_secret_change_me"
	}
	if a.ExpiresDays <= 0 {
		a.ExpiresDays = 14
	}
	if a.CookieName == "" {
		a.CookieName = "imagematch_token"
	}
	return a
}

// ctxClientKey is the context key type for the authenticated client id.
type ctxClientKey struct{}

// clientID returns the token subject attached by withOptionalAuth, if any.
func clientID(ctx context.Context) string {
	id, _ := ctx.Value(ctxClientKey{}).(string)
	return id
}

type anonRes struct {
	ClientID  string    `json:"clientId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleAnon issues an anonymous client token. A caller that already holds a
// valid token keeps its client id and gets a refreshed token.
func (s *Server) handleAnon(w http.ResponseWriter, r *http.Request) {
	id := clientID(r.Context())
	if id == "" {
		id = uuid.NewString()
	}
	tok, exp, err := s.signJWT(id)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setAuthCookie(w, tok, exp)
	writeJSON(w, http.StatusOK, anonRes{ClientID: id, Token: tok, ExpiresAt: exp.UTC()})
}

// withOptionalAuth decorates requests with the client id if a valid JWT is present.
// It never 401s; every route here allows guests.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := s.bearerOrCookie(r); tok != "" {
				if sub, err := s.parseJWT(tok); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), ctxClientKey{}, sub))
				} else {
					log.Debug().Err(err).Msg("ignoring invalid token")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT for a client id with the configured expiry.
func (s *Server) signJWT(sub string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(time.Duration(s.auth.ExpiresDays) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	})
	ss, err := t.SignedString([]byte(s.auth.Secret))
	return ss, exp, err
}

// parseJWT validates a token and returns its subject.
func (s *Server) parseJWT(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.auth.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	secure := s.auth.Production
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.auth.CookieName); err == nil {
		return c.Value
	}
	return ""
}
