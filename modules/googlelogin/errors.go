package googlelogin

import (
	"fmt"
	"net/http"
)

// flowError is a terminal failure of one login attempt. Message is safe to
// show to the user; it never carries tokens, credentials or store internals.
type flowError struct {
	status  int
	message string
}

func (e *flowError) Error() string { return e.message }

func errInvalidOrExpiredSession() *flowError {
	return &flowError{http.StatusBadRequest, "Invalid or expired login session. Please try again."}
}

func errMissingAuthorizationCode() *flowError {
	return &flowError{http.StatusBadRequest, "Authorization code not found."}
}

func errProviderUnreachable() *flowError {
	return &flowError{http.StatusBadGateway, "Could not reach Google. Please try again later."}
}

// errProviderRejected carries the provider's own error description, the one
// detail that is passed through to the user.
func errProviderRejected(description string) *flowError {
	if description == "" {
		description = "the authorization code was not accepted"
	}
	return &flowError{http.StatusBadGateway, fmt.Sprintf("Google rejected the login attempt: %s", description)}
}

func errMalformedIdentityToken() *flowError {
	return &flowError{http.StatusBadGateway, "Received a malformed identity token from Google."}
}

func errMissingEmailClaim() *flowError {
	return &flowError{http.StatusBadGateway, "Could not read an email address from your Google account."}
}

func errAccountCreationFailed() *flowError {
	return &flowError{http.StatusInternalServerError, "Could not create a new account. Please try again later."}
}
