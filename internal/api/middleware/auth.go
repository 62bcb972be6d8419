package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"channel-chat/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "user_id"

type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

// RequireAuth accepts a bearer token in the Authorization header only.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return am.authenticate(false)
}

// RequireWSAuth also accepts the token query parameter, since browsers cannot
// set headers on a WebSocket upgrade.
func (am *AuthMiddleware) RequireWSAuth() gin.HandlerFunc {
	return am.authenticate(true)
}

func (am *AuthMiddleware) authenticate(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" && allowQuery {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			response.Abort(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "authorization header is required")
			return
		}

		userID, err := am.ParseUserID(tokenString)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, err.Error())
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// ParseUserID validates an HMAC-signed token and returns its user_id claim.
func (am *AuthMiddleware) ParseUserID(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(am.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}))
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}

	userID, ok := claims[userIDKey].(float64)
	if !ok || userID < 1 || userID != math.Trunc(userID) || userID > math.MaxUint32 {
		return 0, fmt.Errorf("user_id claim must be a positive integer")
	}
	return uint(userID), nil
}

func bearerToken(c *gin.Context) string {
	return strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
}

// UserID returns the authenticated user. Only valid behind RequireAuth.
func UserID(c *gin.Context) uint {
	return c.MustGet(userIDKey).(uint)
}
