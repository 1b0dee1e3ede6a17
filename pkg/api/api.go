package api

import (
	"context"
	"net"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Api is an HTTP server listening on a TCP address or on unix:///path.sock.
type Api struct {
	listenAddr string
	router     *mux.Router
	upgrader   websocket.Upgrader
	srv        *http.Server
}

func NewApi(listenAddr string) *Api {
	api := &Api{
		listenAddr: listenAddr,
		router:     mux.NewRouter(),
	}
	api.srv = &http.Server{
		Addr:    listenAddr,
		Handler: api.router,
	}
	return api
}

func (api *Api) RegisterHandler(path string, methods []string, handler func(http.ResponseWriter, *http.Request)) {
	api.router.
		Path(path).
		HandlerFunc(handler).
		Methods(methods...)
}

func (api *Api) RegisterMiddlewareFuncs(middlewareFunc ...mux.MiddlewareFunc) {
	api.router.Use(middlewareFunc...)
}

// Handler returns the router, for serving without listening.
func (api *Api) Handler() http.Handler {
	return api.router
}

// Start listens and serves until Shutdown is called.
func (api *Api) Start() error {
	log.WithField("kind", "api").Infof("status api listens on %s", api.srv.Addr)
	if err := api.listen(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (api *Api) Shutdown(ctx context.Context) error {
	log.WithField("kind", "api").Info("shutting down status api")
	return api.srv.Shutdown(ctx)
}

func (api *Api) listen() error {
	socketParts := strings.Split(api.srv.Addr, "unix://")
	if len(socketParts) <= 1 {
		return api.listenOnPort()
	}

	return api.listenOnUnixSocket(socketParts[1])
}

func (api *Api) listenOnUnixSocket(socketFile string) error {
	socketDir := path.Dir(socketFile)
	if err := os.MkdirAll(socketDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to prepare folder for socket-file")
	}
	_ = os.Remove(socketFile)

	conn, err := net.Listen("unix", socketFile)
	if err != nil {
		return err
	}
	return api.srv.Serve(conn)
}

func (api *Api) listenOnPort() error {
	return api.srv.ListenAndServe()
}
