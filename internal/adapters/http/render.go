package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"juventud/internal/application/listutil"
	"juventud/internal/domain/form"
	"juventud/internal/domain/persona"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// pages lists every page template; each is parsed together with layout.html.
var pages = []string{
	"home.html",
	"registro.html",
	"registro_confirmar.html",
	"registro_exito.html",
	"admin_personas.html",
	"admin_actividades.html",
	"admin_login.html",
	"admin_outbox.html",
	"admin_audit.html",
}

// mdRenderer converts activity descriptions to HTML.
// Raw HTML in the source is dropped (goldmark's default without html.WithUnsafe).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// listQuery encodes sort, filters and page into a query string.
func listQuery(s listutil.SortParams, filters listutil.FilterParams, page int) string {
	q := s.Query()
	for k, v := range filters.Filters {
		q.Set(k, v)
	}
	if page > 1 {
		q.Set("page", fmt.Sprint(page))
	}
	return q.Encode()
}

var funcMap = template.FuncMap{
	"renderMarkdown": renderMarkdown,
	"formatCedula":   persona.FormatCedula,
	"formatTelefono": persona.FormatTelefono,
	"fieldError": func(errs form.FieldErrors, field string) string {
		return errs[field]
	},
	"sortLink": func(base string, s listutil.SortParams, col string, filters listutil.FilterParams) template.URL {
		return template.URL(base + "?" + listQuery(s.Toggle(col), filters, 1))
	},
	"sortMark": func(s listutil.SortParams, col string) string {
		if s.Sort != col {
			return ""
		}
		if s.IsDesc() {
			return "▼"
		}
		return "▲"
	},
	"pageLink": func(base string, s listutil.SortParams, filters listutil.FilterParams, page int) template.URL {
		return template.URL(base + "?" + listQuery(s, filters, page))
	},
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
}

// parseTemplates parses each page with the shared layout.
// POST: Returns one template set per page name, or the first parse error
func parseTemplates() (map[string]*template.Template, error) {
	set := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		set[name] = tpl
	}
	return set, nil
}

func staticFiles() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}

// pageData is what every page template receives.
type pageData struct {
	Title     string
	AdminPath string
	Admin     bool // renders the admin navigation
	LoggedIn  bool // shows the logout button
	CSRFField template.HTML
	Data      any
}

// render writes the named page with status.
// PRE: name is listed in pages
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	tpl, ok := s.templates[name]
	if !ok {
		internalError(w, fmt.Errorf("unknown template %q", name))
		return
	}
	pd := pageData{
		Title:     title,
		AdminPath: s.opts.AdminPath,
		Admin:     strings.HasPrefix(name, "admin_") && name != "admin_login.html",
		LoggedIn:  s.gateEnabled(),
		CSRFField: csrf.TemplateField(r),
		Data:      data,
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, pd); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

// wantsJSON reports whether the response should be JSON: a JSON body, or an Accept header without HTML.
func wantsJSON(r *http.Request) bool {
	if isJSONRequest(r) {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") && !isHTMLRequest(r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json_encode_failed", "error", err)
	}
}

// redirectBack sends the browser to path after a form post.
func redirectBack(w http.ResponseWriter, r *http.Request, path string, q url.Values) {
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
