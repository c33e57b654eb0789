// Gatehouse puts a "Sign in with Google" button in front of a storefront
// site. It runs the OAuth2 authorization-code flow against Google, maps the
// returned identity to a local account stored in sqlite, and hands the
// browser a session cookie.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/tokopintar/gatehouse/db"
	"github.com/tokopintar/gatehouse/engine"
	"github.com/tokopintar/gatehouse/modules/accounts"
	"github.com/tokopintar/gatehouse/modules/googlelogin"
	"github.com/tokopintar/gatehouse/modules/session"
	"github.com/tokopintar/gatehouse/modules/state"
)

type Config struct {
	HttpAddr string `envDefault:":8080"`
	Dir      string

	GoogleClientID     string
	GoogleClientSecret string

	// AccountPageURL is where the browser is sent after login, typically the
	// storefront's account page. Defaults to the site root.
	AccountPageURL string `envDefault:"/"`
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	conf, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "GATEHOUSE_", UseFieldNameByDefault: true})
	if err != nil {
		panic(err)
	}

	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		err := engine.CheckHealthProbe("http://localhost:8080/healthz") // assume server is running on the default port
		if err != nil {
			panic(err)
		}
		return
	}

	a, _, err := newApp(conf, getSelfURL(conf))
	if err != nil {
		panic(err)
	}

	a.Run(context.TODO())
}

type gatehouse struct {
	*engine.App
	Login    *googlelogin.Module
	Sessions *session.Manager
}

func newApp(conf Config, self *url.URL) (*gatehouse, *sql.DB, error) {
	database, err := db.New(filepath.Join(conf.Dir, "gatehouse.sqlite3"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	router := engine.NewRouter()
	router.Handle("GET", "/healthz", engine.ServeHealthProbe(database))

	accountStore := accounts.NewStore(database)
	sessions := session.New(accountStore, engine.NewTokenIssuer(filepath.Join(conf.Dir, "session.pem")), self)
	states := state.NewStore(database)

	if conf.GoogleClientID == "" {
		slog.Info("google login is not configured - the login button will not be rendered")
	}
	login := googlelogin.New(self,
		googlelogin.Credentials{ClientID: conf.GoogleClientID, ClientSecret: conf.GoogleClientSecret},
		states,
		accounts.NewResolver(accountStore),
		sessions,
		conf.AccountPageURL)

	a := engine.NewApp(conf.HttpAddr, router)
	a.Add(sessions)
	a.Router.Authenticator = sessions // IMPORTANT
	a.Add(states)
	a.Add(login)

	return &gatehouse{App: a, Login: login, Sessions: sessions}, database, nil
}

func getSelfURL(conf Config) *url.URL {
	str := os.Getenv("SELF_URL")
	if str == "" {
		conn, err := net.Dial("udp4", "8.8.8.8:53")
		if err != nil {
			panic(err)
		}
		conn.Close()

		_, port, _ := net.SplitHostPort(conf.HttpAddr)
		str = fmt.Sprintf("http://%s:%s", conn.LocalAddr().(*net.UDPAddr).IP, port)
		slog.Info("discovered self URL", "url", str)
	}

	self, err := url.Parse(str)
	if err != nil {
		panic(err)
	}
	return self
}
