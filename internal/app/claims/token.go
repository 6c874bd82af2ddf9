package claims

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/medinotify/portal/internal/app/system/normalize"
)

var errTokenSubjectMismatch = errors.New("token subject does not match account id")

// tokenClaims is the custom claim set minted by the identity provider.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseRoleToken extracts the role claim from an identity-provider token.
// Trigger payloads may carry the signed token alongside the account id; this
// verifies the signature and that the token was minted for that account.
func ParseRoleToken(tokenString, accountID string, secret []byte) (string, error) {
	var tc tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &tc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenUnverifiable
	}
	if tc.Subject != accountID {
		return "", errTokenSubjectMismatch
	}
	return normalize.Role(tc.Role), nil
}
