// Package googlelogin implements "Sign in with Google": it renders the login
// affordance, runs the OAuth2 authorization-code flow against Google, maps the
// returned identity to a local account and establishes a session.
package googlelogin

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"

	"github.com/tokopintar/gatehouse/engine"
	"github.com/tokopintar/gatehouse/modules/accounts"
	"github.com/tokopintar/gatehouse/modules/session"
	"github.com/tokopintar/gatehouse/modules/state"
)

const callbackPath = "/login/google/callback"

// exchangeTimeout bounds the code-for-token call to Google. There are no
// retries anywhere in the flow - a failed attempt is terminal and the user
// starts over from the button.
const exchangeTimeout = 10 * time.Second

// Credentials holds the OAuth client credentials. They are read-only here and
// never logged.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

type Module struct {
	self     *url.URL
	creds    Credentials
	states   *state.Store
	resolver *accounts.Resolver
	sessions *session.Manager

	// destinationURL is where the browser lands after a successful login,
	// typically the storefront account page.
	destinationURL string

	endpoint    oauth2.Endpoint
	httpClient  *http.Client
	authLimiter *rate.Limiter
}

func New(self *url.URL, creds Credentials, states *state.Store, resolver *accounts.Resolver, sessions *session.Manager, destinationURL string) *Module {
	if destinationURL == "" {
		destinationURL = "/"
	}
	return &Module{
		self:           self,
		creds:          creds,
		states:         states,
		resolver:       resolver,
		sessions:       sessions,
		destinationURL: destinationURL,
		endpoint:       google.Endpoint,
		httpClient:     &http.Client{Timeout: exchangeTimeout},
		authLimiter:    rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

func (m *Module) AttachRoutes(router *engine.Router) {
	router.Handle("GET", "/login", m.handleLoginPage)
	router.Handle("GET", callbackPath, m.handleCallback)
}

// Configured reports whether a client ID is present. When it isn't, the login
// button is suppressed rather than failing at callback time.
func (m *Module) Configured() bool {
	return m.creds.ClientID != ""
}

// SetProviderEndpoint points the module at a different OAuth2 endpoint, e.g. a
// stand-in provider.
func (m *Module) SetProviderEndpoint(ep oauth2.Endpoint) {
	m.endpoint = ep
}

func (m *Module) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     m.creds.ClientID,
		ClientSecret: m.creds.ClientSecret,
		Endpoint:     m.endpoint,
		Scopes:       []string{"openid", "email", "profile"},
		RedirectURL:  fmt.Sprintf("%s%s", m.self.String(), callbackPath),
	}
}
