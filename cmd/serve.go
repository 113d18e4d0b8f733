package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dispatchsim/dispatchsim/sim"
	"github.com/dispatchsim/dispatchsim/sim/control"
	"github.com/dispatchsim/dispatchsim/sim/scenario"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a scenario over HTTP for interactive stepping",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd, cfgFile)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := serve(ctx, cfg); err != nil {
			logrus.Fatalf("Server failed: %v", err)
		}
	},
}

func init() {
	addScenarioFlag(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Duration("autoplay", 0, "Step automatically at this interval from startup (0 = manual)")
	serveCmd.Flags().Bool("fast-forward", false, "Skip idle ticks while both waiting queues are empty")
}

// newServer builds the control server for cfg without starting it.
func newServer(cfg *RunConfig) (*control.Server, error) {
	world, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return nil, err
	}
	opts := []sim.Option{sim.WithSink(sim.LogSink{})}
	if cfg.FastForward {
		opts = append(opts, sim.WithFastForward())
	}
	s, err := sim.NewSimulator(world, opts...)
	if err != nil {
		return nil, err
	}

	ctrl := control.NewController(s)
	auto := control.NewAutoPlayer(ctrl)
	if cfg.AutoPlay > 0 {
		if err := auto.Start(cfg.AutoPlay); err != nil {
			return nil, err
		}
	}
	return control.NewServer(ctrl, auto), nil
}

// serve runs the control server until ctx is done.
func serve(ctx context.Context, cfg *RunConfig) error {
	srv, err := newServer(cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.Addr) }()

	select {
	case err := <-errCh:
		srv.Close()
		return err
	case <-ctx.Done():
		logrus.Info("Shutting down control server")
		return srv.Close()
	}
}
