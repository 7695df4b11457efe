package shell

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Dispatch outcomes reported to the Recorder.
const (
	OutcomeRendered  = "rendered"
	OutcomeRedirect  = "redirect"
	OutcomeUnmatched = "unmatched"
	OutcomeError     = "error"
)

// LayoutTemplate is the template that wraps navbar, content and footer.
const LayoutTemplate = "layout"

// Renderer executes named templates.
type Renderer interface {
	RenderTemplate(w io.Writer, name string, data interface{}) error
}

// Chrome supplies the persistent navbar and footer around every render.
type Chrome interface {
	Navbar(w http.ResponseWriter, r *http.Request, active string) (interface{}, error)
	Footer(r *http.Request) (interface{}, error)
}

// Recorder observes dispatch outcomes.
type Recorder interface {
	ObserveDispatch(route, outcome string, elapsed time.Duration)
}

// LayoutData is passed to LayoutTemplate.
type LayoutData struct {
	Title   string
	Route   string
	Nav     interface{}
	Content template.HTML
	Footer  interface{}
}

// Options configures a Shell.
type Options struct {
	Table    Table
	Renderer Renderer
	Chrome   Chrome
	Logger   *slog.Logger
	Recorder Recorder
	Tracer   trace.Tracer
}

// Shell is the root handler: navbar, one routed content area, footer.
type Shell struct {
	table    Table
	renderer Renderer
	chrome   Chrome
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
}

// New builds a Shell from opts.
func New(opts Options) (*Shell, error) {
	if opts.Renderer == nil {
		return nil, fmt.Errorf("shell: renderer is required")
	}
	if opts.Chrome == nil {
		return nil, fmt.Errorf("shell: chrome is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("gatehouse/shell")
	}
	return &Shell{
		table:    opts.Table,
		renderer: opts.Renderer,
		chrome:   opts.Chrome,
		logger:   opts.Logger,
		recorder: opts.Recorder,
		tracer:   opts.Tracer,
	}, nil
}

// ServeHTTP dispatches the request path against the route table and renders the layout.
func (s *Shell) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := s.tracer.Start(r.Context(), "shell.dispatch")
	defer span.End()
	r = r.WithContext(ctx)

	routeName, outcome, err := s.serve(w, r)
	span.SetAttributes(attribute.String("route", routeName), attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "shell render failed", "route", routeName, "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	if s.recorder != nil {
		s.recorder.ObserveDispatch(routeName, outcome, time.Since(start))
	}
}

func (s *Shell) serve(w http.ResponseWriter, r *http.Request) (string, string, error) {
	var view View
	routeName := NoMatch
	outcome := OutcomeRendered

	if route, ok := s.table.Match(r.URL.Path); ok {
		routeName = route.Name
		v, err := route.Page.Render(w, r)
		if err != nil {
			return routeName, OutcomeError, fmt.Errorf("page %s: %w", route.Name, err)
		}
		view = v
	} else {
		view = View{Status: http.StatusNotFound}
		outcome = OutcomeUnmatched
	}

	if view.Redirect != "" {
		status := view.Status
		if status < 300 || status > 399 {
			status = http.StatusFound
		}
		http.Redirect(w, r, view.Redirect, status)
		return routeName, OutcomeRedirect, nil
	}

	body, err := s.renderLayout(w, r, routeName, view)
	if err != nil {
		return routeName, OutcomeError, err
	}
	status := view.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = body.WriteTo(w)
	}
	return routeName, outcome, nil
}

func (s *Shell) renderLayout(w http.ResponseWriter, r *http.Request, routeName string, view View) (*bytes.Buffer, error) {
	var content bytes.Buffer
	if view.Template != "" {
		if err := s.renderer.RenderTemplate(&content, view.Template, view.Data); err != nil {
			return nil, fmt.Errorf("content %s: %w", view.Template, err)
		}
	}
	nav, err := s.chrome.Navbar(w, r, routeName)
	if err != nil {
		return nil, fmt.Errorf("navbar: %w", err)
	}
	footer, err := s.chrome.Footer(r)
	if err != nil {
		return nil, fmt.Errorf("footer: %w", err)
	}

	var out bytes.Buffer
	data := LayoutData{
		Title:   view.Title,
		Route:   routeName,
		Nav:     nav,
		Content: template.HTML(content.String()),
		Footer:  footer,
	}
	if err := s.renderer.RenderTemplate(&out, LayoutTemplate, data); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return &out, nil
}
