package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openlearn/courseware/internal/metrics"
	"github.com/openlearn/courseware/internal/web"
)

type ServeCmd struct {
	Server string `help:"Server URL override" default:""`
	Listen string `help:"Web shell listen address" default:"" env:"COURSEWARE_LISTEN"`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	stack, err := buildStack(globals, s.Server)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics.NewCollector(registry).Observe(stack.bus)

	listen := s.Listen
	if listen == "" {
		listen = stack.cfg.ListenAddr
	}

	server := web.NewServer(listen, stack.store, stack.client, registry, stack.log)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Restore in the background so the first request sees the waiting
	// page instead of blocking on the network
	go stack.restore(ctx)

	return server.Run(ctx)
}
