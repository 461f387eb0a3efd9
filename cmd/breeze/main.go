package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/breezechat/breeze/pkg/balancer"
	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/metrics"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "breeze",
	Short: "BreezeChat - chat platform server tier",
	Long: `Breeze runs the BreezeChat server-side microservices: user accounts,
blob storage, speech recognition, message transmit and message storage.

Each service registers itself in etcd and finds its peers the same way,
so instances can be added or removed without reconfiguration.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Breeze version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	// Add service subcommands
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(speechCmd)
	rootCmd.AddCommand(transmitCmd)
	rootCmd.AddCommand(storageCmd)
}

// initLogging configures the global logger from the shared logging flags.
func initLogging(cmd *cobra.Command) {
	level, _ := cmd.Flags().GetString("log-level")
	jsonOut, _ := cmd.Flags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

// serveMetrics exposes Prometheus metrics and health probes on addr. When a
// connection manager is given its pool sizes are sampled too. An empty addr
// disables the endpoint; the returned stop function is safe to call either
// way.
func serveMetrics(addr string, mgr *balancer.Manager) func() {
	if addr == "" {
		return func() {}
	}

	metrics.SetVersion(Version)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server error", err)
		}
	}()

	var collector *metrics.Collector
	if mgr != nil {
		collector = metrics.NewCollector(mgr)
		collector.Start()
	}

	return func() {
		if collector != nil {
			collector.Stop()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
