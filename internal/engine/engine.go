// Package engine runs the configured fake servers.
package engine

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/islo-labs/icn-push/internal/builtin"
	"github.com/islo-labs/icn-push/internal/config"
	"github.com/islo-labs/icn-push/pkg/fake"
)

// Instance is a running fake service.
type Instance struct {
	Config  config.Service
	Service fake.Service
	Server  *http.Server
}

// Engine manages fake service instances.
type Engine struct {
	instances []*Instance
	logger    hclog.Logger
}

// New creates an Engine from the service blocks of cfg.
func New(cfg *config.Config, logger hclog.Logger) (*Engine, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	e := &Engine{logger: logger}
	for _, svc := range cfg.Services {
		newFn, ok := builtin.Registry[svc.Type]
		if !ok {
			return nil, fmt.Errorf("unknown service type: %q", svc.Type)
		}
		s := newFn()
		if err := s.Configure(svc.Env); err != nil {
			return nil, fmt.Errorf("configuring %s/%s: %w", svc.Type, svc.Name, err)
		}
		mux := http.NewServeMux()
		mux.HandleFunc("POST /_/reset", func(w http.ResponseWriter, r *http.Request) {
			if err := s.Reset(); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `{"status":"ok"}`)
		})
		mux.Handle("/", s)
		e.instances = append(e.instances, &Instance{
			Config:  svc,
			Service: s,
			Server: &http.Server{
				Addr:    fmt.Sprintf(":%d", svc.Port),
				Handler: mux,
			},
		})
	}
	return e, nil
}

// Instances returns the configured instances.
func (e *Engine) Instances() []*Instance {
	return e.instances
}

// Run starts all HTTP servers and blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(e.instances))

	for _, inst := range e.instances {
		info := inst.Service.Info()
		addr := inst.Server.Addr

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		e.logger.Info("starting fake service", "type", inst.Config.Type, "name", inst.Config.Name,
			"version", info.Version, "addr", addr)

		wg.Add(1)
		go func(srv *http.Server, ln net.Listener) {
			defer wg.Done()
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}(inst.Server, ln)
	}

	<-ctx.Done()
	e.logger.Info("shutting down")

	for _, inst := range e.instances {
		if err := inst.Server.Shutdown(context.Background()); err != nil {
			e.logger.Error("shutdown failed", "type", inst.Config.Type, "name", inst.Config.Name, "error", err)
		}
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
