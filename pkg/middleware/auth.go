package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/pkg/response"
)

// 角色常量
const (
	RoleDealer = "dealer"
	RoleAdmin  = "admin"
)

// gin context keys
const (
	DealerIDKey = "dealer_id"
	RoleKey     = "role"
)

// Claims JWT 载荷
type Claims struct {
	DealerID uint   `json:"dealer_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken 签发 JWT
func IssueToken(secret string, dealerID uint, role string, ttl time.Duration) (string, error) {
	claims := Claims{
		DealerID: dealerID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken 解析并校验 JWT
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// AuthRequired 要求携带有效 token
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			response.Error(c, apperr.New(apperr.CodeAuthenticationRequired, "missing bearer token"))
			c.Abort()
			return
		}

		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			response.Error(c, apperr.Wrap(apperr.CodeAuthenticationRequired, "invalid token", err))
			c.Abort()
			return
		}

		c.Set(DealerIDKey, claims.DealerID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// AdminRequired 要求 admin 角色，必须位于 AuthRequired 之后
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleKey) != RoleAdmin {
			response.Error(c, apperr.New(apperr.CodeForbidden, "admin role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// DealerID 从 gin context 读取当前登录 dealer
func DealerID(c *gin.Context) uint {
	if v, ok := c.Get(DealerIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
