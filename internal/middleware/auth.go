package middleware

import (
	"net/http"
	"strings"

	"github.com/avoronov/url-shortener/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const principalKey = "principal"

// Principal — аутентифицированная личность запроса.
// Отсутствие Principal в контексте означает анонимный запрос.
type Principal struct {
	Username string
	Role     string
}

// JWTAuth разбирает Bearer-токен входящего запроса
type JWTAuth struct {
	secret []byte
	logger *zap.Logger
}

func NewJWTAuth(secret string, logger *zap.Logger) *JWTAuth {
	return &JWTAuth{
		secret: []byte(secret),
		logger: logger,
	}
}

// Middleware кладёт Principal в контекст, если токен валиден.
// Битый или просроченный токен не валит запрос: он логируется, и запрос
// идёт дальше анонимным — отказывают только guard'ы защищённых роутов.
func (a *JWTAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		principal, err := a.authenticate(tokenString)
		if err != nil {
			a.logger.Warn("Невалидный токен, запрос продолжается анонимно",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// authenticate валидирует подпись и срок действия, возвращает Principal
func (a *JWTAuth) authenticate(tokenString string) (Principal, error) {
	claims := &service.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return Principal{}, err
	}
	if !token.Valid {
		return Principal{}, jwt.ErrTokenUnverifiable
	}

	return Principal{
		Username: claims.Subject,
		Role:     claims.Role,
	}, nil
}

// RequireRole пропускает только аутентифицированные запросы с нужной ролью
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "Authentication required",
			})
			c.Abort()
			return
		}

		if principal.Role != role {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Insufficient role",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// PrincipalFromContext извлекает Principal из контекста запроса
func PrincipalFromContext(c *gin.Context) (Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return Principal{}, false
	}
	principal, ok := v.(Principal)
	return principal, ok
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
