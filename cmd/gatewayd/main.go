// Command gatewayd runs a gatewaymux Gateway from a declarative YAML
// configuration file: modules, links, and the inprocess module types they
// reference. It exists as a thin demonstration harness, not a deployment
// target — embedders are expected to call package core directly.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gatewaymux/gatewaymux/config"
	"github.com/gatewaymux/gatewaymux/core"
	"github.com/gatewaymux/gatewaymux/core/middleware"
	"github.com/gatewaymux/gatewaymux/internal/log"
	"github.com/gatewaymux/gatewaymux/internal/metrics"
	"github.com/gatewaymux/gatewaymux/loaders"
	"github.com/gatewaymux/gatewaymux/loaders/inprocess"
	"github.com/gatewaymux/gatewaymux/modules/kafkasink"
	"github.com/gatewaymux/gatewaymux/modules/logger"
	"github.com/gatewaymux/gatewaymux/modules/natsbridge"
	"github.com/gatewaymux/gatewaymux/modules/rabbitmqsink"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gatewayd",
	Short: "gatewayd runs an in-process message gateway from a config file",
	Version: Version,
}

var Version = "dev"

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOutput})
}

var runCmd = &cobra.Command{
	Use:   "run CONFIG_FILE",
	Short: "Start a gateway from a YAML configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		cfg, err := config.LoadYAMLFile(args[0])
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		inprocessLoader := inprocess.New()
		inprocessLoader.Register("kafkasink", kafkasink.Factory{})
		inprocessLoader.Register("natsbridge", natsbridge.Factory{})
		inprocessLoader.Register("rabbitmqsink", rabbitmqsink.Factory{})
		inprocessLoader.Register("logger", logger.Factory{})
		loaders.Register(inprocessLoader)

		gw, err := core.Create(loaders.Default, cfg, core.WithBrokerOptions(
			core.WithMiddleware(
				middleware.Recovery(),
				middleware.Logging(),
				middleware.Metrics(metrics.Collector{}),
			),
		))
		if err != nil {
			return fmt.Errorf("create gateway: %w", err)
		}
		defer gw.Destroy()

		if err := gw.Start(); err != nil {
			return fmt.Errorf("start gateway: %w", err)
		}

		snapshot := gw.GetModuleList()
		log.Logger.Info().Int("modules", len(snapshot.Modules)).Msg("gatewayd: gateway started")
		core.DestroyModuleList(snapshot)

		go func() {
			http.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(metricsAddr, nil); err != nil {
				log.Logger.Error().Err(err).Msg("gatewayd: metrics server stopped")
			}
		}()
		log.Logger.Info().Str("addr", metricsAddr).Msg("gatewayd: metrics endpoint listening")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.Logger.Info().Msg("gatewayd: shutting down")
		return nil
	},
}

func init() {
	runCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the Prometheus metrics endpoint")
}
