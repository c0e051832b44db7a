package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
)

// Auth проверяет JWT-токены Keycloak через OIDC discovery
type Auth struct {
	issuerURL string
	clientID  string
	devMode   bool // ослабленные проверки verifier-а (локальный Keycloak)
	isDev     bool // полностью моковые claims без Keycloak

	once     sync.Once
	verifier *oidc.IDTokenVerifier
	initErr  error
}

func New(issuerURL, clientID string, devMode, isDev bool) *Auth {
	return &Auth{
		issuerURL: issuerURL,
		clientID:  clientID,
		devMode:   devMode,
		isDev:     isDev,
	}
}

// initVerifier инициализирует OIDC-провайдер с несколькими попытками:
// Keycloak в соседнем контейнере может стартовать позже сервиса
func (a *Auth) initVerifier() (*oidc.IDTokenVerifier, error) {
	a.once.Do(func() {
		var err error
		var provider *oidc.Provider
		for i := 0; i < 5; i++ {
			provider, err = oidc.NewProvider(context.Background(), a.issuerURL)
			if err == nil {
				a.verifier = provider.Verifier(&oidc.Config{
					ClientID:          a.clientID,
					SkipIssuerCheck:   a.devMode,
					SkipClientIDCheck: a.devMode,
				})
				return
			}
			if i < 4 {
				time.Sleep(2 * time.Second)
			}
		}
		a.initErr = fmt.Errorf("failed to create OIDC provider after 5 attempts: %w", err)
	})

	if a.initErr != nil {
		return nil, a.initErr
	}
	return a.verifier, nil
}

// JWTAuth проверяет bearer-токен и кладет claims в контекст запроса
func (a *Auth) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/ping" {
			c.Next()
			return
		}

		if a.isDev {
			c.Set("jwt_claims", map[string]any{
				"sub":                "dev-user",
				"preferred_username": "developer",
				"email":              "dev@example.com",
				"realm_access": map[string]any{
					"roles": []string{"admin", "user"},
				},
			})
			c.Next()
			return
		}

		verifier, err := a.initVerifier()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "authentication service unavailable",
				"details": err.Error(),
			})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected 'Bearer <token>'",
			})
			return
		}

		tokenString := strings.TrimSpace(authHeader[len("Bearer "):])
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "empty bearer token",
			})
			return
		}

		idToken, err := verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid token",
				"details": err.Error(),
			})
			return
		}

		var claims map[string]any
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to parse token claims",
				"details": err.Error(),
			})
			return
		}

		c.Set("jwt_claims", claims)
		c.Next()
	}
}

// RequireRealmRole требует наличие realm-роли Keycloak
func (a *Auth) RequireRealmRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.isDev {
			c.Next()
			return
		}

		val, exists := c.Get("jwt_claims")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing token claims",
			})
			return
		}

		claims, ok := val.(map[string]any)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid claims structure",
			})
			return
		}

		if !hasRealmRole(claims, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "insufficient permissions",
				"required": role,
			})
			return
		}

		c.Next()
	}
}

func hasRealmRole(claims map[string]any, role string) bool {
	realmAccess, ok := claims["realm_access"].(map[string]any)
	if !ok {
		return false
	}

	roles, ok := realmAccess["roles"].([]any)
	if !ok {
		return false
	}

	for _, r := range roles {
		if s, ok := r.(string); ok && s == role {
			return true
		}
	}
	return false
}

// GetUsername извлекает имя пользователя из claims
func GetUsername(c *gin.Context) (string, bool) {
	val, exists := c.Get("jwt_claims")
	if !exists {
		return "", false
	}

	claims, ok := val.(map[string]any)
	if !ok {
		return "", false
	}

	if username, ok := claims["preferred_username"].(string); ok {
		return username, true
	}
	if email, ok := claims["email"].(string); ok {
		return email, true
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub, true
	}
	return "", false
}
