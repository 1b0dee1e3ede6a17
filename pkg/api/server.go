// Package api exposes the monitor status over HTTP: the current status, an
// on-demand run and a websocket stream of statuses.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
	"golang.org/x/time/rate"
)

// Engine is the part of the monitor served by the api.
type Engine interface {
	Store() *monitor.StatusStore
	Trigger(ctx context.Context) (monitor.GlobalStatus, bool)
	Subscribe() (<-chan monitor.GlobalStatus, func())
}

type Options struct {
	Listen string
	// Token is the bearer token every request must carry.
	Token string
	// TriggerRate limits on-demand runs; requests above it get the current
	// status. Zero disables the limit.
	TriggerRate  rate.Limit
	TriggerBurst int
}

type Server struct {
	*Api

	engine  Engine
	token   string
	limiter *rate.Limiter
}

func NewServer(engine Engine, opts Options) *Server {
	s := &Server{
		Api:    NewApi(opts.Listen),
		engine: engine,
		token:  opts.Token,
	}
	if opts.TriggerRate > 0 {
		burst := opts.TriggerBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(opts.TriggerRate, burst)
	}

	s.RegisterMiddlewareFuncs(s.authenticate)
	s.RegisterHandler("/", []string{http.MethodGet}, s.handleStatus)
	s.RegisterHandler("/trigger", []string{http.MethodGet}, s.handleTrigger)
	s.RegisterHandler("/watch", []string{http.MethodGet}, s.handleWatch)
	return s
}

// authenticate answers 401 with an empty body unless the bearer token
// matches.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !s.authorized(req.Header.Get("Authorization")) {
			log.WithFields(log.Fields{"kind": "api", "path": req.URL.Path, "remote": req.RemoteAddr}).Info("request with wrong token")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (s *Server) authorized(header string) bool {
	return subtle.ConstantTimeCompare([]byte(header), []byte("Bearer "+s.token)) == 1
}

func (s *Server) handleStatus(w http.ResponseWriter, req *http.Request) {
	status := s.engine.Store().Snapshot()
	log.WithFields(log.Fields{"kind": "api", "status": status.Global.Status}).Debug("responding with current status")
	writeJSON(w, status)
}

func (s *Server) handleTrigger(w http.ResponseWriter, req *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		log.WithField("kind", "api").Info("trigger rate limited, responding with current status")
		writeJSON(w, s.engine.Store().Snapshot())
		return
	}

	log.WithField("kind", "api").Info("triggering extra run")
	status, ran := s.engine.Trigger(req.Context())
	if !ran {
		log.WithField("kind", "api").Info("run already in progress, responding with current status")
	}
	writeJSON(w, status)
}

func (s *Server) handleWatch(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.WithField("kind", "api").WithError(err).Warn("failed to upgrade connection")
		return
	}
	defer conn.Close()

	updates, cancel := s.engine.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(req.Context())
	defer stop()

	// handle client disconnects
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				stop()
				return
			}
		}
	}()

	if err := conn.WriteJSON(s.engine.Store().Snapshot()); err != nil {
		return
	}

	for {
		select {
		case status, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(status); err != nil {
				log.WithField("kind", "api").WithError(err).Debug("watcher went away")
				return
			}
		case <-ctx.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode status", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}
