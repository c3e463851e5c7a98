package server

import (
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"civichub/internal/cache"
	"civichub/internal/middleware"
	"civichub/internal/models"
	"civichub/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionCookie   = "session"
	sessionIssuer   = "civichub"
	sessionAudience = "civichub-web"

	localsCurrentUser = "currentUser"
	localsUserID      = "userID"
	localsSessionID   = "sessionID"
	localsSessionExp  = "sessionExpires"
)

// issueSession signs a session token for user and stores it in the session cookie.
// With remember set the cookie outlives the browser session.
func (s *Server) issueSession(c *fiber.Ctx, user *models.User, remember bool) error {
	ttl := s.config.SessionTTL()
	if remember {
		ttl = s.config.RememberTTL()
	}

	token, err := s.signSession(user.ID, ttl)
	if err != nil {
		return err
	}

	cookie := &fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if remember {
		cookie.Expires = time.Now().Add(ttl)
	}
	c.Cookie(cookie)
	return nil
}

// signSession creates the HS256 session token for userID.
func (s *Server) signSession(userID uint, ttl time.Duration) (string, error) {
	if s.config.SessionSecret == "" {
		return "", errors.New("session secret not configured")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    sessionIssuer,
		Audience:  jwt.ClaimStrings{sessionAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SessionSecret))
}

// parseSession validates a session token and returns its claims.
func (s *Server) parseSession(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(_ *jwt.Token) (any, error) { return []byte(s.config.SessionSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithAudience(sessionAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// LoadSession resolves the current user from the session cookie once per request.
// Missing, invalid, revoked or orphaned sessions leave the request anonymous.
func (s *Server) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(sessionCookie)
		if raw == "" {
			return c.Next()
		}

		claims, err := s.parseSession(raw)
		if err != nil {
			clearCookie(c, sessionCookie)
			return c.Next()
		}

		revoked, err := cache.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "session revocation check failed", slog.String("error", err.Error()))
		}
		if revoked {
			clearCookie(c, sessionCookie)
			return c.Next()
		}

		id, err := strconv.ParseUint(claims.Subject, 10, 32)
		if err != nil {
			clearCookie(c, sessionCookie)
			return c.Next()
		}

		user, err := s.userService.GetUserByID(c.UserContext(), uint(id))
		if err != nil {
			if models.IsNotFound(err) {
				clearCookie(c, sessionCookie)
				return c.Next()
			}
			return err
		}

		c.Locals(localsCurrentUser, user)
		c.Locals(localsUserID, user.ID)
		c.Locals(localsSessionID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Locals(localsSessionExp, claims.ExpiresAt.Time)
		}
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))

		return c.Next()
	}
}

// endSession revokes the current session token and clears the cookie.
func (s *Server) endSession(c *fiber.Ctx) {
	if jti, ok := c.Locals(localsSessionID).(string); ok {
		remaining := time.Until(s.sessionExpiry(c))
		revoked, err := cache.RevokeToken(c.UserContext(), jti, remaining)
		result := "cookie_only"
		switch {
		case err != nil:
			result = "error"
			middleware.Logger.WarnContext(c.UserContext(), "session revocation failed", slog.String("error", err.Error()))
		case revoked:
			result = "revoked"
		}
		observability.SessionEvents.WithLabelValues("logout", result).Inc()
	}
	clearCookie(c, sessionCookie)
}

func (s *Server) sessionExpiry(c *fiber.Ctx) time.Time {
	if exp, ok := c.Locals(localsSessionExp).(time.Time); ok {
		return exp
	}
	return time.Now().Add(s.config.RememberTTL())
}

// currentUser returns the user resolved by LoadSession, or nil for anonymous requests.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localsCurrentUser).(*models.User)
	return user
}

// LoginRequired redirects anonymous requests to the login page, remembering the requested path.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) != nil {
			return c.Next()
		}
		s.flash(c, flashInfo, "Please log in to access this page.")
		return c.Redirect("/login?next=" + url.QueryEscape(c.OriginalURL()))
	}
}

// RoleRequired lets through only users holding role. Others are sent home with a flash.
// Must be placed after LoginRequired.
func (s *Server) RoleRequired(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if user == nil || user.Role != role {
			s.flash(c, flashDanger, "This page is for administrators only.")
			return c.Redirect("/")
		}
		return c.Next()
	}
}

// safeNext returns next when it is a local path, otherwise fallback.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

// clearCookie expires name on the client.
func clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Expires:  time.Unix(0, 0),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
