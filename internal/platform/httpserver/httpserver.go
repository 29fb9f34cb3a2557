package httpserver

import (
	"net/http"
	"time"
)

// New builds the admission API server. Gate kiosks poll over stadium wifi, so
// slow-header clients get cut off early and idle keep-alives are kept short.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
