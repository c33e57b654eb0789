package engine

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"log/slog"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies JWTs using an RSA key kept on disk.
// The key is generated on first use.
type TokenIssuer struct {
	Key *rsa.PrivateKey
}

func NewTokenIssuer(keyFile string) *TokenIssuer {
	t := &TokenIssuer{}
	t.loadOrGenerateKey(keyFile)
	return t
}

func (t *TokenIssuer) loadOrGenerateKey(file string) {
read:
	keyPEM, err := os.ReadFile(file)
	if err == nil {
		block, _ := pem.Decode(keyPEM)
		t.Key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			panic(err)
		}
		return
	}
	if !os.IsNotExist(err) {
		panic(err)
	}

	slog.Info("generating RSA key", "file", file)
	pkey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}

	err = os.WriteFile(file, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(pkey),
	}), 0600)
	if err != nil {
		panic(err)
	}

	goto read
}

func (t *TokenIssuer) Sign(claims *jwt.RegisteredClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(t.Key)
}

func (t *TokenIssuer) Verify(tok string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tok, claims, func(token *jwt.Token) (any, error) {
		return t.Key.Public(), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
