package utils

import (
	"errors"
	"time"

	"linka/internal/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken 生成 JWT token
func GenerateToken(userID string, role int) (string, error) {
	cfg := config.GlobalConfig.JWT

	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Duration(cfg.Expire) * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseToken 解析并校验 JWT token
func ParseToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.GlobalConfig.JWT.Secret), nil
	})
}
