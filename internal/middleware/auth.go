package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// Header names accepted by the auth middleware.
const (
	HeaderAdminID = "X-Admin-ID"
	HeaderAPIKey  = "X-API-Key"
)

const adminIDKey = "admin_id"

// TokenVerifier validates a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (subject string, err error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer and returns a verifier for ID tokens
// issued to clientID.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (TokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover oidc provider: %w", err)
	}
	return &oidcVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (v *oidcVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", err
	}
	return token.Subject, nil
}

// AdminAuth resolves the acting administrator for admin routes.
type AdminAuth struct {
	verifier    TokenVerifier
	trustHeader bool
	logger      *zap.Logger
}

// NewAdminAuth creates the admin middleware. With a nil verifier and
// trustHeader set, the X-Admin-ID header identifies the admin; that mode is
// meant for local development only.
func NewAdminAuth(verifier TokenVerifier, trustHeader bool, logger *zap.Logger) *AdminAuth {
	return &AdminAuth{verifier: verifier, trustHeader: trustHeader, logger: logger}
}

// RequireAdmin rejects requests without a verified admin identity.
func (m *AdminAuth) RequireAdmin(c fiber.Ctx) error {
	if m.verifier != nil {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return unauthorized(c, "missing bearer token")
		}
		subject, err := m.verifier.Verify(c.Context(), raw)
		if err != nil {
			m.logger.Debug("admin token rejected", zap.Error(err))
			return unauthorized(c, "invalid token")
		}
		if subject == "" {
			return unauthorized(c, "token has no subject")
		}
		c.Locals(adminIDKey, subject)
		return c.Next()
	}

	if m.trustHeader {
		if id := strings.TrimSpace(c.Get(HeaderAdminID)); id != "" {
			c.Locals(adminIDKey, id)
			return c.Next()
		}
	}
	return unauthorized(c, "admin authentication required")
}

// AdminID returns the admin resolved by RequireAdmin, or "".
func AdminID(c fiber.Ctx) string {
	id, _ := c.Locals(adminIDKey).(string)
	return id
}

// RequireAPIKey guards ingestion routes with a shared key sent in X-API-Key
// or as a bearer token. An empty key disables the check.
func RequireAPIKey(key string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}
		got := c.Get(HeaderAPIKey)
		if got == "" {
			got, _ = bearerToken(c.Get(fiber.HeaderAuthorization))
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return unauthorized(c, "invalid api key")
		}
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}
