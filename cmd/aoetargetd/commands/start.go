package commands

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	aoe "github.com/yang123vc/aoetargetd"
	"github.com/yang123vc/aoetargetd/internal/config"
	"github.com/yang123vc/aoetargetd/internal/control"
	"github.com/yang123vc/aoetargetd/internal/logger"
	"github.com/yang123vc/aoetargetd/internal/metrics"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the AoE target daemon in the foreground",
	Long: `Start the AoE target daemon: load its configuration, register the
configured volumes, and serve AoE requests on the configured interface
until terminated.

Examples:
  # Start with the default config location
  aoetargetd start

  # Start with a custom config file
  aoetargetd start --config /etc/aoetargetd/config.yaml

  # Override the log level via environment variable
  AOETARGETD_LOGGING_LEVEL=debug aoetargetd start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}

	reg := &aoe.Registry{
		Metrics: metrics.New(prometheus.DefaultRegisterer),
		Log:     log,
	}

	for _, vc := range cfg.Volumes {
		ifindex := 0
		if vc.Interface != "" {
			ifindex, err = interfaceIndex(vc.Interface)
			if err != nil {
				return fmt.Errorf("volume %s: %w", vc.Path, err)
			}
		}

		v, err := reg.Register(volumeName(vc.Path), vc.Shelf, vc.Slot, ifindex, vc.Path, vc.ReadOnly)
		if err != nil {
			return fmt.Errorf("volume %s: %w", vc.Path, err)
		}
		for _, mac := range vc.ACL {
			if err := reg.AddMask(vc.Shelf, vc.Slot, parseMAC(mac)); err != nil {
				return fmt.Errorf("volume %s: acl %s: %w", vc.Path, mac, err)
			}
		}
		v.Advertise = vc.Advertise
		log.Info("configured volume", "name", v.Name, "shelf", v.Shelf, "slot", v.Slot, "advertise", v.Advertise)
	}

	ifi, err := net.InterfaceByName(cfg.Interface)
	if err != nil {
		return fmt.Errorf("interface %s: %w", cfg.Interface, err)
	}
	srv := &aoe.Server{Iface: ifi, Registry: reg}

	listener, err := control.Listen(cfg.ControlSocket, reg, log)
	if err != nil {
		return err
	}

	advertiseCtx, stopAdvertise := context.WithCancel(context.Background())
	defer stopAdvertise()

	serverErr := make(chan error, 1)
	go func() { serverErr <- srv.ListenAndServe() }()
	go srv.AdvertiseLoop(advertiseCtx, reg, 0)

	controlErr := make(chan error, 1)
	go func() { controlErr <- listener.Serve() }()

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", "error", err)
			}
		}()
		log.Info("metrics enabled", "addr", cfg.MetricsAddr)
	}

	log.Info("aoetargetd started", "interface", cfg.Interface, "control_socket", cfg.ControlSocket, "volumes", len(cfg.Volumes))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Error("server stopped", "error", err)
		}
	case err := <-controlErr:
		if err != nil {
			log.Error("control listener stopped", "error", err)
		}
	}

	_ = listener.Close()
	reg.Shutdown()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(context.Background())
	}

	log.Info("aoetargetd stopped")
	return nil
}
