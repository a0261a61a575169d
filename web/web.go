// Package web serves the nametag form and its JSON/PNG side endpoints.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"nametags/journal"
	"nametags/label"
	"nametags/printer"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Service is what the handlers need from the station.
type Service interface {
	// PrintLabel renders and prints req on the named size ("" = default).
	PrintLabel(ctx context.Context, source string, req label.Request, sizeID string) error
	// Preview renders without printing.
	Preview(req label.Request, sizeID string) (*label.Label, error)
	// History returns recent journal entries, newest first.
	History(ctx context.Context, limit int) ([]journal.Entry, error)
	// Sizes lists the selectable label sizes.
	Sizes() []string
	// DefaultSize is the configured label size.
	DefaultSize() string
}

// Config holds HTTP listener settings.
type Config struct {
	Listen string `yaml:"listen"`
	// AdminUser and AdminPasswordHash (bcrypt) protect /history when set.
	AdminUser         string `yaml:"admin_user"`
	AdminPasswordHash string `yaml:"admin_password_hash"`
}

// Server is the nametag web front end.
type Server struct {
	cfg Config
	svc Service
	log *zap.SugaredLogger
	srv *http.Server
}

// New creates a server. Returns nil if no listen address is configured.
func New(cfg Config, svc Service) *Server {
	if cfg.Listen == "" {
		return nil
	}
	s := &Server{cfg: cfg, svc: svc, log: zap.S().Named("web")}
	s.srv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleForm)
	mux.HandleFunc("POST /{$}", s.handlePrint)
	mux.HandleFunc("GET /preview.png", s.handlePreview)
	mux.Handle("GET /history", s.requireAdmin(http.HandlerFunc(s.handleHistory)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Web form listening on %s", s.cfg.Listen)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web shutdown: %w", err)
	}
	return nil
}

type formData struct {
	Name       string
	SecondLine string
	Size       string
	Sizes      []string
	Error      string
}

func (s *Server) form(r *http.Request) formData {
	d := formData{
		Name:       r.FormValue("name"),
		SecondLine: r.FormValue("second_line"),
		Size:       r.FormValue("size"),
		Sizes:      s.svc.Sizes(),
	}
	if d.Size == "" {
		d.Size = s.svc.DefaultSize()
	}
	return d
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data formData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		s.log.Errorf("Render %s: %v", name, err)
	}
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", s.form(r))
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	d := s.form(r)

	req := label.Request{Primary: d.Name, Secondary: d.SecondLine}
	err := s.svc.PrintLabel(r.Context(), journal.SourceWeb, req, d.Size)
	if err != nil {
		status := statusFor(err)
		s.log.Warnf("Print %q from %s: %v", d.Name, r.RemoteAddr, err)
		d.Error = userMessage(err)
		s.render(w, status, "index.html", d)
		return
	}

	s.render(w, http.StatusOK, "printing.html", d)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	d := s.form(r)
	lbl, err := s.svc.Preview(label.Request{Primary: d.Name, Secondary: d.SecondLine}, d.Size)
	if err != nil {
		http.Error(w, userMessage(err), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := lbl.WritePNG(w); err != nil {
		s.log.Warnf("Write preview: %v", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			http.Error(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.svc.History(r.Context(), limit)
	if err != nil {
		s.log.Errorf("History: %v", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireAdmin gates next behind basic auth when an admin password hash is
// configured.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	if s.cfg.AdminPasswordHash == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.cfg.AdminUser ||
			bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="nametags"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	var transport *printer.TransportError
	switch {
	case errors.Is(err, label.ErrEmptyText), errors.Is(err, label.ErrTextTooLong):
		return http.StatusBadRequest
	case errors.As(err, &transport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(err error) string {
	var transport *printer.TransportError
	switch {
	case errors.Is(err, label.ErrEmptyText):
		return "Please enter a name."
	case errors.Is(err, label.ErrTextTooLong):
		return fmt.Sprintf("Please keep each line under %d characters.", label.MaxTextRunes)
	case errors.Is(err, label.ErrInvalidLabelSize):
		return "That label size is not available."
	case errors.As(err, &transport):
		return "The printer is not responding. Please ask for help."
	default:
		return "Something went wrong printing your nametag."
	}
}
