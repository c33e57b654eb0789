package accounts

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Identity is the set of claims the login flow hands to the resolver.
// Only Email is required.
type Identity struct {
	Email       string
	GivenName   string
	FamilyName  string
	DisplayName string
}

// Resolver finds the local account for a federated identity, provisioning one
// when no account exists for the email yet.
type Resolver struct {
	store *Store
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the account for the identity's email, creating it if needed.
// New accounts get a login name derived from the email's local part, with an
// integer suffix when the name is taken, and a random password that is never
// shown to anyone - the account can only be entered through federated login.
func (r *Resolver) Resolve(ctx context.Context, id Identity) (*Account, error) {
	email := strings.ToLower(strings.TrimSpace(id.Email))

	acc, err := r.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc != nil {
		return acc, nil
	}

	base := deriveLoginName(email)
	name := base
	for i := 1; ; i++ {
		taken, err := r.store.LoginNameExists(ctx, name)
		if err != nil {
			return nil, err
		}
		if !taken {
			break
		}
		name = base + strconv.Itoa(i)
	}

	hash, err := randomPasswordHash()
	if err != nil {
		return nil, fmt.Errorf("generating password: %w", err)
	}

	display := id.DisplayName
	if display == "" {
		display = name
	}

	return r.store.Create(ctx, NewAccount{
		LoginName:    name,
		Email:        email,
		DisplayName:  display,
		GivenName:    id.GivenName,
		FamilyName:   id.FamilyName,
		PasswordHash: hash,
	})
}

// deriveLoginName maps the email's local part onto the allowed login name
// charset ([a-z0-9._-]). Anything else is dropped.
func deriveLoginName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, c := range local {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

func randomPasswordHash() (string, error) {
	pw := make([]byte, 24)
	if _, err := rand.Read(pw); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.StdEncoding.EncodeToString(pw)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
