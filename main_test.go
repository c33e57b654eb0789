package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/oauth2"

	"github.com/tokopintar/gatehouse/engine"
)

// fakeGoogle stands in for Google's token endpoint. The email baked into the
// returned id_token is derived from the authorization code.
func fakeGoogle(t *testing.T) *httptest.Server {
	b64 := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")

		email, ok := strings.CutPrefix(r.FormValue("code"), "code-for-")
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant", "error_description": "Bad code"})
			return
		}

		claims, err := json.Marshal(map[string]string{"email": email, "name": "Test User"})
		require.NoError(t, err)
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "at",
			"token_type":   "Bearer",
			"id_token":     b64(`{"alg":"RS256"}`) + "." + b64(string(claims)) + ".sig",
		})
	})

	svr := httptest.NewServer(mux)
	t.Cleanup(svr.Close)
	return svr
}

func newTestApp(t *testing.T) (*gatehouse, string) {
	// Grab a free port for the app to listen on
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	self, err := url.Parse("http://" + addr)
	require.NoError(t, err)

	a, _, err := newApp(Config{
		HttpAddr:           addr,
		Dir:                t.TempDir(),
		GoogleClientID:     "test-client",
		GoogleClientSecret: "test-secret",
		AccountPageURL:     "/account",
	}, self)
	require.NoError(t, err)

	google := fakeGoogle(t)
	a.Login.SetProviderEndpoint(oauth2.Endpoint{
		AuthURL:   google.URL + "/auth",
		TokenURL:  google.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	})

	return a, "http://" + addr
}

func start(t *testing.T, a *gatehouse, baseURL string) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go a.Run(ctx)

	require.Eventually(t, func() bool {
		return engine.CheckHealthProbe(baseURL+"/healthz") == nil
	}, time.Second*10, time.Millisecond*25)
}

func TestLoginIntegration(t *testing.T) {
	a, baseURL := newTestApp(t)
	start(t, a, baseURL)

	e := httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  baseURL,
		Reporter: httpexpect.NewAssertReporter(t),
		Client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error { return http.ErrUseLastResponse },
		},
	})

	// Unauthenticated requests get bounced to the login page
	e.GET("/whoami").Expect().
		Status(http.StatusFound).
		Header("Location").IsEqual("/login")

	// The login page renders a button whose URL carries the state token
	page := e.GET("/login").Expect().Status(http.StatusOK)
	authURL := buttonURL(t, page.Body().Raw())
	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)
	require.Equal(t, "test-client", authURL.Query().Get("client_id"))

	// Complete the callback as if Google had redirected back to us
	resp := e.GET("/login/google/callback").
		WithQuery("state", state).
		WithQuery("code", "code-for-ana@x.com").
		Expect().Status(http.StatusFound)
	resp.Header("Location").IsEqual("/account")
	cookie := resp.Cookie("gatehouse_session").Value().Raw()
	require.NotEmpty(t, cookie)

	// The session belongs to the freshly provisioned account
	e.GET("/whoami").WithCookie("gatehouse_session", cookie).
		Expect().Status(http.StatusOK).
		JSON().Object().
		HasValue("email", "ana@x.com").
		HasValue("login_name", "ana")

	// The state token was consumed - replaying it fails
	e.GET("/login/google/callback").
		WithQuery("state", state).
		WithQuery("code", "code-for-ana@x.com").
		Expect().Status(http.StatusBadRequest)

	// A second login with the same email reuses the account
	page = e.GET("/login").Expect().Status(http.StatusOK)
	state2 := buttonURL(t, page.Body().Raw()).Query().Get("state")
	require.NotEqual(t, state, state2)

	cookie2 := e.GET("/login/google/callback").
		WithQuery("state", state2).
		WithQuery("code", "code-for-ana@x.com").
		Expect().Status(http.StatusFound).
		Cookie("gatehouse_session").Value().Raw()

	e.GET("/whoami").WithCookie("gatehouse_session", cookie2).
		Expect().Status(http.StatusOK).
		JSON().Object().
		HasValue("login_name", "ana")

	// A different user with a colliding email local part gets a suffixed name
	page = e.GET("/login").Expect().Status(http.StatusOK)
	state3 := buttonURL(t, page.Body().Raw()).Query().Get("state")

	cookie3 := e.GET("/login/google/callback").
		WithQuery("state", state3).
		WithQuery("code", "code-for-ana@y.com").
		Expect().Status(http.StatusFound).
		Cookie("gatehouse_session").Value().Raw()

	e.GET("/whoami").WithCookie("gatehouse_session", cookie3).
		Expect().Status(http.StatusOK).
		JSON().Object().
		HasValue("email", "ana@y.com").
		HasValue("login_name", "ana1")

	// A rejected code surfaces Google's error description
	page = e.GET("/login").Expect().Status(http.StatusOK)
	state4 := buttonURL(t, page.Body().Raw()).Query().Get("state")

	e.GET("/login/google/callback").
		WithQuery("state", state4).
		WithQuery("code", "garbage").
		Expect().Status(http.StatusBadGateway).
		Body().Contains("Bad code")

	// Logout clears the session cookie
	e.GET("/logout").Expect().
		Status(http.StatusTemporaryRedirect).
		Header("Location").IsEqual("/")
}

// buttonURL digs the login button's href out of the rendered login page.
func buttonURL(t *testing.T, page string) *url.URL {
	doc, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)

	var href string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			attrs := map[string]string{}
			for _, a := range n.Attr {
				attrs[a.Key] = a.Val
			}
			if strings.Contains(attrs["class"], "google-login-button") {
				href = attrs["href"]
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	require.NotEmpty(t, href, "login button not found in page")

	parsed, err := url.Parse(href)
	require.NoError(t, err)
	return parsed
}
