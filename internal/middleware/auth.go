package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// NodeIDKey is the gin context key holding the authenticated node id
const NodeIDKey = "auth_node_id"

// NodeClaims identify a sensor node; the subject is the node id
type NodeClaims struct {
	jwt.RegisteredClaims
}

// IssueNodeToken signs a token for nodeID valid for ttl (no expiry when ttl <= 0)
func IssueNodeToken(secret, nodeID string, ttl time.Duration, now time.Time) (string, error) {
	claims := NodeClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:  nodeID,
		IssuedAt: jwt.NewNumericDate(now),
	}}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing node token: %w", err)
	}
	return signed, nil
}

// ParseNodeToken validates a token and returns its node id
func ParseNodeToken(secret, token string) (string, error) {
	var claims NodeClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// NodeAuth requires a bearer token signed with secret. An empty secret
// disables the check. The node id from the token is stored under NodeIDKey.
func NodeAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		nodeID, err := ParseNodeToken(secret, token)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		c.Set(NodeIDKey, nodeID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": msg,
	})
}
