package worker

import (
	"context"

	"github.com/hibiken/asynq"
)

type Mux struct{ mux *asynq.ServeMux }

func NewMux() *Mux { return &Mux{mux: asynq.NewServeMux()} }

func (m *Mux) HandleFunc(t string, h func(ctx context.Context, task *asynq.Task) error) {
	m.mux.HandleFunc(t, h)
}

func (m *Mux) Mux() *asynq.ServeMux { return m.mux }

// Server wraps an asynq server bound to mux.
type Server struct {
	srv *asynq.Server
	mux *Mux
}

// NewServer builds a worker server with concurrency goroutines on the
// default queue.
func NewServer(opt asynq.RedisClientOpt, concurrency int, mux *Mux) *Server {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{"default": 1},
	})
	return &Server{srv: srv, mux: mux}
}

func (s *Server) Start() error { return s.srv.Start(s.mux.Mux()) }
func (s *Server) Shutdown()    { s.srv.Shutdown() }
