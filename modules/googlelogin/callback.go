package googlelogin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/oauth2"

	"github.com/tokopintar/gatehouse/engine"
	"github.com/tokopintar/gatehouse/modules/accounts"
)

// handleCallback processes the redirect back from Google's consent screen.
// Every step is terminal on failure - the user restarts from the button,
// which mints a fresh state token.
func (m *Module) handleCallback(r *http.Request, ps httprouter.Params) engine.Response {
	m.authLimiter.Wait(r.Context())
	ctx := r.Context()

	// The state row is consumed no matter how the rest of the attempt goes,
	// so a state value can never be replayed.
	ok, err := m.states.Take(ctx, r.URL.Query().Get("state"))
	if err != nil {
		return engine.Errorf("redeeming login state: %s", err)
	}
	if !ok {
		return failLogin(errInvalidOrExpiredSession())
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		return failLogin(errMissingAuthorizationCode())
	}

	rawIDToken, ferr := m.exchangeCode(ctx, code)
	if ferr != nil {
		return failLogin(ferr)
	}

	claims, err := decodeIdentityToken(rawIDToken)
	if err != nil {
		slog.Warn("received an undecodable identity token", "error", err)
		return failLogin(errMalformedIdentityToken())
	}
	if claims.Email == "" {
		return failLogin(errMissingEmailClaim())
	}

	account, err := m.resolver.Resolve(ctx, accounts.Identity{
		Email:       claims.Email,
		GivenName:   claims.GivenName,
		FamilyName:  claims.FamilyName,
		DisplayName: claims.Name,
	})
	if err != nil {
		slog.Error("resolving account for login", "error", err)
		return failLogin(errAccountCreationFailed())
	}

	cook, err := m.sessions.Establish(account.ID)
	if err != nil {
		return engine.Errorf("establishing session: %s", err)
	}

	slog.Info("completed google login", "accountID", account.ID)
	return engine.WithCookie(cook, engine.Redirect(m.destinationURL, http.StatusFound))
}

// exchangeCode trades the authorization code for tokens and returns the raw
// identity token. The call is bounded by exchangeTimeout and never retried.
func (m *Module) exchangeCode(ctx context.Context, code string) (string, *flowError) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)

	token, err := m.oauthConfig().Exchange(ctx, code)
	if err != nil {
		retrieveErr := &oauth2.RetrieveError{}
		if errors.As(err, &retrieveErr) {
			slog.Warn("google rejected token exchange", "code", retrieveErr.ErrorCode, "description", retrieveErr.ErrorDescription)
			return "", errProviderRejected(retrieveErr.ErrorDescription)
		}
		slog.Error("google token exchange failed", "error", err)
		return "", errProviderUnreachable()
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errMalformedIdentityToken()
	}
	return rawIDToken, nil
}

func failLogin(ferr *flowError) engine.Response {
	return engine.ClientErrorf(ferr.status, "%s", ferr.message)
}
