package utils

import (
	"context"
	"errors"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type TokenData struct {
	Sub   string
	Email string
}

var tokenKeyfunc jwt.Keyfunc

// InitTokenVerifier fetches the identity provider's JWKS and keeps it
// refreshed in the background. Must be called once before the server starts
// accepting requests.
func InitTokenVerifier(jwksURL string) error {
	if jwksURL == "" {
		return errors.New("token verifier: empty JWKS URL")
	}

	k, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
	if err != nil {
		return err
	}
	tokenKeyfunc = k.Keyfunc
	return nil
}

// ParseTokenDataCtx extracts and verifies the Bearer token of a request and
// returns its subject claims. The subject must be the UUID the identity
// provider assigned at signup.
func ParseTokenDataCtx(c echo.Context) (*TokenData, error) {
	if tokenKeyfunc == nil {
		return nil, errors.New("token verifier not initialized")
	}

	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	raw, found := strings.CutPrefix(auth, "Bearer ")
	if !found || raw == "" {
		return nil, errors.New("missing bearer token")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, tokenKeyfunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(sub); err != nil {
		return nil, errors.New("token subject is not a UUID")
	}

	email, _ := claims["email"].(string)
	return &TokenData{Sub: sub, Email: email}, nil
}
