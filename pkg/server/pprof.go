package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewPprofServer serves the runtime profiling endpoints under /debug on addr.
func NewPprofServer(addr string) *http.Server {
	mux := chi.NewRouter()
	mux.Mount("/debug", middleware.Profiler())
	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}
