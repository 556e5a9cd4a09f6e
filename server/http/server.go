package http

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultShutdownDeadline = 10 * time.Second

	roomIDLength  = 7
	roomIDCharset = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var (
	ErrUnexpected = errors.New("unexpected server error")
)

// Server serves the conferencing page. The root path redirects to a fresh
// random room, any other single path segment is treated as a room identifier
// and gets the page, and segments naming a real file under the web root (the
// page's script and styles) are served as-is. Rooms are not checked for
// existence; joining happens over the signaling websocket.
type Server struct {
	logger  zerolog.Logger
	webRoot string
	*http.Server
}

type Config struct {
	Logger     *zerolog.Logger
	ListenAddr string
	WebRoot    string
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		logger:  cfg.Logger.With().Str("component", "page-server").Logger(),
		webRoot: cfg.WebRoot,
	}

	r := http.NewServeMux()
	r.HandleFunc("GET /healthz", healthHandler)
	r.HandleFunc("GET /{room}", srv.room)
	r.HandleFunc("GET /{$}", srv.home)

	srv.Server = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}
	return srv
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (srv *Server) home(w http.ResponseWriter, r *http.Request) {
	roomID, err := randomRoomID()
	if err != nil {
		srv.logger.Error().Err(err).Msg("failed to generate room id")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/"+roomID, http.StatusFound)
}

func (srv *Server) room(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")

	// static assets referenced by the page live flat in the web root
	asset := filepath.Join(srv.webRoot, filepath.Clean("/"+room))
	if fi, err := os.Stat(asset); err == nil && !fi.IsDir() {
		http.ServeFile(w, r, asset)
		return
	}

	srv.logger.Trace().Str("roomID", room).Msg("serving room page")
	http.ServeFile(w, r, filepath.Join(srv.webRoot, "index.html"))
}

func randomRoomID() (string, error) {
	b := make([]byte, roomIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = roomIDCharset[int(b[i])%len(roomIDCharset)]
	}
	return string(b), nil
}

func (srv *Server) Run(ctx context.Context, wg *sync.WaitGroup, errc chan<- error) {
	defer func() {
		srv.logger.Debug().Msg("server stopped")
		wg.Done()
	}()

	hErr := make(chan error)
	go func() {
		hErr <- srv.ListenAndServe()
	}()

	srv.logger.Info().Str("addr", srv.Addr).Msg("server started")

	select {
	case err := <-hErr:
		if !errors.Is(err, http.ErrServerClosed) {
			errc <- errors.Join(ErrUnexpected, err)
		}
	case <-ctx.Done():
		shCtx, shCancel := context.WithTimeout(context.Background(), defaultShutdownDeadline)
		defer shCancel()
		if err := srv.Shutdown(shCtx); err != nil {
			srv.logger.Error().Err(err).Msg("server shutdown failed")
		}
	}
}
