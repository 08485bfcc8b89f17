package server

import (
	_ "embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/kwertop/probset/filters"
	"github.com/kwertop/probset/units"
)

//go:embed static/index.html
var indexHTML string

var indexTPL = template.Must(template.New("index.html").Delims("[[", "]]").Funcs(template.FuncMap{
	"bits":     units.FormatBits,
	"rate":     units.FormatRate,
	"count":    units.FormatCount,
	"si":       units.FormatSI,
	"overhead": filters.Overhead,
}).Parse(indexHTML))

// page is what index.html renders
type page struct {
	Title      string
	Version    string
	Elements   string
	Rate       string
	Storage    string
	Bucket     string
	Exact      bool
	Error      string
	Result     *filters.ComparisonResult
	Capacities []filters.Capacity
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/", r.URL.Path == "/index.html":
		s.index(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/"):
		s.restAPIhandle(w, r)
	default:
		http.NotFound(w, r)
	}
}

// index renders the form and, once it has been submitted, either the
// comparison for the given element count or the capacity of the given storage
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := page{
		Title:    s.Title,
		Version:  s.version,
		Elements: q.Get("elements"),
		Rate:     q.Get("rate"),
		Storage:  q.Get("storage"),
		Bucket:   q.Get("bucket"),
		Exact:    q.Get("exact") == "true",
	}
	if p.Elements != "" || p.Rate != "" || p.Storage != "" {
		if err := s.fill(r, &p); err != nil {
			p.Error = err.Error()
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTPL.Execute(w, p); err != nil {
		logger.Printf("render failed: %v", err)
	}
}

func (s *Server) fill(r *http.Request, p *page) error {
	request, err := s.readRequest(r)
	if err != nil {
		return err
	}
	if request.Elements == 0 && request.HasBudget() {
		p.Capacities, err = filters.Capacities(request)
		return err
	}
	result, err := s.compare(r.Context(), request)
	if err != nil {
		return err
	}
	p.Result = &result
	return nil
}
