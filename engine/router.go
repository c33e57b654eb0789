package engine

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

// Handler is an http handler that returns its response as a value instead of
// writing it to a ResponseWriter directly.
type Handler func(*http.Request, httprouter.Params) Response

// Authenticator guards handlers behind a login session. The session module
// provides the real implementation; the default lets everything through.
type Authenticator interface {
	WithAuth(Handler) Handler
}

type noopAuthenticator struct{}

func (noopAuthenticator) WithAuth(next Handler) Handler { return next }

type Router struct {
	router *httprouter.Router

	// Authenticator can be used to pass an authenticator implementation to other handlers.
	Authenticator
}

func NewRouter() *Router {
	return &Router{router: httprouter.New(), Authenticator: noopAuthenticator{}}
}

func (r *Router) Handle(method, path string, handler Handler) {
	r.router.Handle(method, path, func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		start := time.Now()

		ww := &responseWrapper{ResponseWriter: w, status: 200}
		if resp := handler(req, ps); resp != nil {
			resp(ww, req)
		}
		slog.Info("http request", "url", req.URL.Path, "method", req.Method, "userAgent", req.UserAgent(), "latencyMS", time.Since(start).Milliseconds(), "status", ww.status)
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) { r.router.ServeHTTP(w, req) }

// Serve wires up the stdlib http server to the engine.
func (r *Router) Serve(addr string) Proc {
	return func(ctx context.Context) error {
		svr := &http.Server{Handler: r, Addr: addr}
		go func() {
			<-ctx.Done()
			slog.Warn("gracefully shutting down http server...")
			svr.Shutdown(context.Background())
		}()
		if err := svr.ListenAndServe(); err != nil {
			return err
		}
		slog.Info("the http server has shut down")
		return nil
	}
}

type responseWrapper struct {
	http.ResponseWriter
	status int
}

func (w *responseWrapper) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
