package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Template names.
const (
	TemplateOrderConfirmation  = "order_confirmation"
	TemplateDelivery           = "delivery"
	TemplateAbandonedCheckout1 = "abandoned_checkout_1"
	TemplateAbandonedCheckout2 = "abandoned_checkout_2"
	TemplateReviewRequest      = "review_request"
	TemplateReferralInvite     = "referral_invite"
	TemplateAnniversary        = "anniversary"
)

const (
	subjectBlock      = "subject"
	bodyBlock         = "body"
	templateExtension = ".html"
)

// Renderer renders subject and HTML body of named templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	return newRenderer(templateFiles)
}

func newRenderer(fsys fs.FS) (*Renderer, error) {
	files, err := fs.Glob(fsys, "templates/*"+templateExtension)
	if err != nil {
		return nil, err
	}
	r := &Renderer{templates: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), templateExtension)
		tmpl, err := template.New(name).Option("missingkey=zero").ParseFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		for _, block := range []string{subjectBlock, bodyBlock} {
			if tmpl.Lookup(block) == nil {
				return nil, fmt.Errorf("template %s lacks %q block", name, block)
			}
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render substitutes data into the named template.
func (r *Renderer) Render(name string, data map[string]string) (subject, body string, err error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", name)
	}
	if data == nil {
		data = map[string]string{}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, subjectBlock, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	subject = strings.TrimSpace(html.UnescapeString(buf.String()))

	buf.Reset()
	if err := tmpl.ExecuteTemplate(&buf, bodyBlock, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return subject, strings.TrimSpace(buf.String()), nil
}

// Has reports whether a template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}
