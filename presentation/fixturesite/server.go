// Package fixturesite serves the embedded fixture pages the page-object
// catalog is written against. Tests run it on an ephemeral port; the CLI
// serves it on a fixed port for manual debugging.
package fixturesite

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
)

//go:embed site/*.html
var siteFS embed.FS

// AjaxText is the payload the ajax fixture page loads into its output div
const AjaxText = "Loaded via AJAX"

// Server hosts the fixture pages over HTTP
type Server struct {
	logger   *logrus.Logger
	srv      *http.Server
	listener net.Listener
	baseURL  string
}

// New - creates an unstarted fixture server
func New(logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{logger: logger}
}

// Handler returns the fixture site routes
func (s *Server) Handler() http.Handler {
	site, err := fs.Sub(siteFS, "site")
	if err != nil {
		// embed contents are fixed at build time
		panic(err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(site)))
	mux.HandleFunc("/ajax_data", func(w http.ResponseWriter, r *http.Request) {
		// Go 1.21 ServeMux has no method patterns; enforce GET (and HEAD,
		// which a "GET /ajax_data" pattern would also match) by hand
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": AjaxText})
	})
	return mux
}

// Start - begins serving; the port comes from SERVER_PORT when set,
// otherwise an ephemeral port is used. Returns the base URL.
func (s *Server) Start() (string, error) {
	addr := "127.0.0.1:0"
	if port := os.Getenv("SERVER_PORT"); port != "" {
		addr = "127.0.0.1:" + port
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
	s.srv = &http.Server{Handler: s.Handler()}

	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("fixture server stopped")
		}
	}()

	s.logger.WithField("url", s.baseURL).Info("fixture site serving")
	return s.baseURL, nil
}

// BaseURL returns the address the server is reachable at
func (s *Server) BaseURL() string {
	return s.baseURL
}

// Stop - shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
