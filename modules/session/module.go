// Package session issues and verifies the signed cookie that marks a browser
// as logged in. Sessions are only ever created by the federated login flow.
package session

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"github.com/tokopintar/gatehouse/engine"
	"github.com/tokopintar/gatehouse/modules/accounts"
)

const (
	cookieName = "gatehouse_session"
	audience   = "gatehouse"
	lifetime   = time.Hour * 24 * 30
)

type Manager struct {
	accounts *accounts.Store
	tokens   *engine.TokenIssuer
	secure   bool
}

func New(store *accounts.Store, iss *engine.TokenIssuer, self *url.URL) *Manager {
	return &Manager{accounts: store, tokens: iss, secure: strings.Contains(self.Scheme, "s")}
}

func (m *Manager) AttachRoutes(router *engine.Router) {
	router.Handle("GET", "/whoami", m.WithAuth(func(r *http.Request, ps httprouter.Params) engine.Response {
		return engine.JSON(GetPrincipal(r.Context()))
	}))

	router.Handle("GET", "/logout", func(r *http.Request, ps httprouter.Params) engine.Response {
		cook := &http.Cookie{Name: cookieName, Path: "/", MaxAge: -1}
		return engine.WithCookie(cook, engine.Redirect("/", http.StatusTemporaryRedirect))
	})
}

// Establish returns the session cookie for the given account.
func (m *Manager) Establish(accountID int64) (*http.Cookie, error) {
	exp := time.Now().Add(lifetime)
	token, err := m.tokens.Sign(&jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(accountID, 10),
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
		HttpOnly: true,
		Secure:   m.secure,
	}, nil
}

// Verify checks a session token and returns its claims.
func (m *Manager) Verify(token string) (*jwt.RegisteredClaims, error) {
	claims, err := m.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if len(claims.Audience) == 0 || claims.Audience[0] != audience {
		return nil, errors.New("unexpected token audience")
	}
	return claims, nil
}

// WithAuth authenticates incoming requests, or redirects them to the login page.
func (m *Manager) WithAuth(next engine.Handler) engine.Handler {
	return func(r *http.Request, ps httprouter.Params) engine.Response {
		cook, err := r.Cookie(cookieName)
		if err != nil {
			return engine.Redirect("/login", http.StatusFound)
		}

		claims, err := m.Verify(cook.Value)
		if err != nil {
			return engine.Redirect("/login", http.StatusFound)
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return engine.Redirect("/login", http.StatusFound)
		}

		acc, err := m.accounts.GetByID(r.Context(), id)
		if err != nil {
			return engine.Error(err)
		}
		if acc == nil {
			return engine.Redirect("/login", http.StatusFound)
		}

		r = r.WithContext(withPrincipal(r.Context(), &Principal{
			ID:          acc.ID,
			LoginName:   acc.LoginName,
			Email:       acc.Email,
			DisplayName: acc.DisplayName,
		}))
		return next(r, ps)
	}
}
