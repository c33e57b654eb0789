package templates

import (
	"context"
	"html/template"
	"io"
)

// Component represents a template component that can be rendered
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

// TemplateComponent implements Component for html/template rendering
type TemplateComponent struct {
	Template *template.Template
	Data     any
}

// Render renders the template component to the writer
func (tc *TemplateComponent) Render(ctx context.Context, w io.Writer) error {
	return tc.Template.Execute(w, tc.Data)
}
