package mw

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rationdesk/internal/model"
)

const tokenTTL = 24 * time.Hour

func IssueToken(admin *model.Admin, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": admin.ID,
		"email":   admin.Email,
		"role":    admin.Role,
		"exp":     jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	})
	return token.SignedString([]byte(secret))
}
