package auth

import (
	"crypto"
	"crypto/rsa"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/lestrrat-go/jwx/jws"
	"github.com/lestrrat-go/jwx/jwt"
)

const (
	EncryptionAlgorithmDefault = jwa.RS512
	IssuerDefault              = "clinic_scheduling"
	AudienceDefault            = "clinic_scheduling"
	AccessTokenType            = "access"
	RefreshTokenType           = "refresh"
	AccessTokenExpiration      = 15 * time.Minute
	RefreshTokenExpiration     = 24 * time.Hour
)

// TokenOption determines the Functional Options used to customize a new token.
type TokenOption func(token jwt.Token) error

// WithExpiration determines the token expiration time.
func WithExpiration(duration time.Duration) TokenOption {
	return func(token jwt.Token) error {
		return token.Set(jwt.ExpirationKey, time.Now().Add(duration))
	}
}

// WithRole sets the subject's role.
func WithRole(role Role) TokenOption {
	return func(token jwt.Token) error {
		return token.Set("role", role)
	}
}

// newToken creates a token of the given type for the given user, applying the extra options last.
func newToken(user User, typ string, expiration time.Duration, opts ...TokenOption) (jwt.Token, error) {
	jwtToken := jwt.New()
	defaults := map[string]interface{}{
		jwt.IssuerKey:     IssuerDefault,
		jwt.AudienceKey:   []string{AudienceDefault},
		jwt.SubjectKey:    user.UUID.String(),
		jwt.IssuedAtKey:   time.Now(),
		jwt.ExpirationKey: time.Now().Add(expiration),
		jwt.JwtIDKey:      uuid.NewString(),
		"typ":             typ,
		"role":            user.Role,
	}
	for key, value := range defaults {
		if err := jwtToken.Set(key, value); err != nil {
			return nil, err
		}
	}
	for _, opt := range opts {
		if err := opt(jwtToken); err != nil {
			return nil, err
		}
	}
	return jwtToken, nil
}

// getThumbprint gets the thumbprint of the private key in order to generate the token headers.
func getThumbprint(privateKey rsa.PrivateKey) (string, error) {
	jwKey, err := jwk.New(privateKey)
	if err != nil {
		return "", err
	}
	thumbprint, err := jwKey.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(thumbprint), nil
}

// SignToken signs the given token using the given private key.
func SignToken(token jwt.Token, privateKey rsa.PrivateKey) (string, error) {
	thumbprint, err := getThumbprint(privateKey)
	if err != nil {
		return "", err
	}
	headers := jws.NewHeaders()
	if err = headers.Set(jws.KeyIDKey, thumbprint); err != nil {
		return "", err
	}
	signedToken, err := jwt.Sign(token, EncryptionAlgorithmDefault, privateKey, jwt.WithHeaders(headers))
	if err != nil {
		return "", err
	}
	return string(signedToken), nil
}

// ParseToken parses the token using the public key and returns the parsed token, otherwise an error.
func ParseToken(token string, publicKey rsa.PublicKey) (jwt.Token, error) {
	parsedToken, err := jwt.Parse([]byte(token), jwt.WithVerify(EncryptionAlgorithmDefault, publicKey))
	if err != nil {
		return nil, err
	}
	return parsedToken, nil
}

// GenerateTokens generates the access and refresh tokens for the given user.
func GenerateTokens(privateKey rsa.PrivateKey, user User, opts ...TokenOption) (*Tokens, error) {
	accessToken, err := newToken(user, AccessTokenType, AccessTokenExpiration, opts...)
	if err != nil {
		return nil, err
	}
	signedAccessToken, err := SignToken(accessToken, privateKey)
	if err != nil {
		return nil, err
	}
	refreshToken, err := newToken(user, RefreshTokenType, RefreshTokenExpiration, opts...)
	if err != nil {
		return nil, err
	}
	signedRefreshToken, err := SignToken(refreshToken, privateKey)
	if err != nil {
		return nil, err
	}
	return &Tokens{
		AccessToken:  signedAccessToken,
		RefreshToken: signedRefreshToken,
	}, nil
}

// MustGenerateTokens generates tokens for the given user and if any error occurs, will panic.
func MustGenerateTokens(privateKey rsa.PrivateKey, user User, opts ...TokenOption) *Tokens {
	tokens, err := GenerateTokens(privateKey, user, opts...)
	if err != nil {
		panic(err)
	}
	return tokens
}
