package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	log     *logrus.Entry
	app     App
	address string
	version string
}

func NewServer(log *logrus.Logger, app App, address, version string) *Server {
	s := Server{
		log:     log.WithField("component", "rest"),
		app:     app,
		address: address,
		version: version,
	}
	return &s
}

func (s *Server) Run(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(s.cors)
	r.Get("/version", s.versionHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Route("/meetings", func(r chi.Router) {
			r.Get("/", s.getMeetingsHandler)
			r.Post("/", s.createMeetingHandler)
			r.Put("/{id}", s.rescheduleMeetingHandler)
			r.Post("/{id}/cancel", s.cancelMeetingHandler)
			r.Post("/{id}/complete", s.completeMeetingHandler)
			r.Post("/{id}/notes", s.addNoteHandler)
		})
	})

	server := &http.Server{Addr: s.address, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("err during shutdown: %v", err)
		}
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
