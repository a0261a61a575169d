package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kardianos/service"
	"go.uber.org/zap"
)

// program runs the App under the system service manager, or in the
// foreground until SIGINT/SIGTERM when started from a terminal.
type program struct {
	cfg    *Config
	app    *App
	cancel context.CancelFunc
	exit   chan struct{}
	fail   func(error)
}

// Start implements service.Interface.
func (p *program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())

	app, err := NewApp(ctx, p.cfg)
	if err != nil {
		cancel()
		return err
	}
	p.app = app
	p.cancel = cancel
	p.exit = make(chan struct{})

	go p.run(ctx)
	return nil
}

func (p *program) run(ctx context.Context) {
	defer close(p.exit)
	err := p.app.Run(ctx)
	p.app.Close()
	if err != nil && ctx.Err() == nil {
		p.fail(err)
	}
}

// Stop implements service.Interface.
func (p *program) Stop(s service.Service) error {
	zap.S().Info("Shutting down...")
	p.cancel()

	select {
	case <-p.exit:
		zap.S().Info("Shutdown complete")
		return nil
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for shutdown")
	}
}

func serviceConfig(cfgPath string) *service.Config {
	abs, err := filepath.Abs(cfgPath)
	if err != nil {
		abs = cfgPath
	}
	return &service.Config{
		Name:         "nametags",
		DisplayName:  "Nametag printer",
		Description:  "Prints visitor nametags from badge scans and the web form",
		Arguments:    []string{"-cfg", abs},
		Dependencies: []string{"After=network-online.target", "Wants=network-online.target"},
		Option: service.KeyValue{
			"Restart": "always",
		},
	}
}
