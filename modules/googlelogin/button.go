package googlelogin

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/tokopintar/gatehouse/engine"
	"github.com/tokopintar/gatehouse/internal/templates"
)

//go:embed templates/*
var templateFS embed.FS

var (
	loginTemplate  *template.Template
	buttonTemplate *template.Template
)

func init() {
	var err error
	loginTemplate, err = template.ParseFS(templateFS, "templates/login.html")
	if err != nil {
		panic(err)
	}
	buttonTemplate, err = template.ParseFS(templateFS, "templates/button.html")
	if err != nil {
		panic(err)
	}
}

// BeginLogin builds the Google consent URL for a fresh login attempt and
// stores the attempt's anti-forgery state token.
func (m *Module) BeginLogin(ctx context.Context) (string, error) {
	stateToken := uuid.NewString()
	if err := m.states.Put(ctx, stateToken); err != nil {
		return "", err
	}
	return m.oauthConfig().AuthCodeURL(stateToken), nil
}

// RenderButton returns the login button markup, or empty HTML when no client
// ID is configured (callers suppress the affordance instead of erroring).
func (m *Module) RenderButton(ctx context.Context) (template.HTML, error) {
	if !m.Configured() {
		return "", nil
	}

	authURL, err := m.BeginLogin(ctx)
	if err != nil {
		return "", err
	}

	buf := &bytes.Buffer{}
	if err := buttonTemplate.Execute(buf, map[string]any{"AuthURL": authURL}); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

type loginPageData struct {
	Button template.HTML
	Error  string
}

func (m *Module) handleLoginPage(r *http.Request, ps httprouter.Params) engine.Response {
	button, err := m.RenderButton(r.Context())
	if err != nil {
		return engine.Errorf("rendering login button: %s", err)
	}

	return engine.Component(&templates.TemplateComponent{
		Template: loginTemplate,
		Data:     loginPageData{Button: button, Error: r.URL.Query().Get("error")},
	})
}
