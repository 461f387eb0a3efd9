package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/breezechat/breeze/pkg/metrics"
	"github.com/breezechat/breeze/pkg/speech"
)

var speechCmd = &cobra.Command{
	Use:   "speech",
	Short: "Run the speech service",
	Long: `Run the speech recognition service. Audio payloads are spooled to a
scratch directory and handed to the ASR sidecar, which reads them from the
shared filesystem and returns the transcript.`,
	RunE: runSpeech,
}

func init() {
	serviceFlags(speechCmd, "speech_service")

	speechCmd.Flags().String("asr-host", "127.0.0.1", "ASR sidecar host")
	speechCmd.Flags().Int("asr-port", 8001, "ASR sidecar port")
	speechCmd.Flags().String("asr-name", "recognize", "ASR sidecar endpoint name")
	speechCmd.Flags().String("tmp-dir", "./tmp", "Scratch directory audio is spooled to")
}

func runSpeech(cmd *cobra.Command, args []string) error {
	if err := applyConfigFile(cmd); err != nil {
		return err
	}
	initLogging(cmd)

	serviceName, _ := cmd.Flags().GetString("service-name")
	instanceName, _ := cmd.Flags().GetString("instance-name")
	listenAddr, _ := cmd.Flags().GetString("listen-addr")
	accessAddr, _ := cmd.Flags().GetString("access-addr")
	ttl, _ := cmd.Flags().GetInt64("etcd-ttl")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	asrHost, _ := cmd.Flags().GetString("asr-host")
	asrPort, _ := cmd.Flags().GetInt("asr-port")
	asrName, _ := cmd.Flags().GetString("asr-name")
	tmpDir, _ := cmd.Flags().GetString("tmp-dir")

	fmt.Println("Starting speech service...")
	fmt.Printf("  Service: %s\n", serviceName)
	fmt.Printf("  Instance: %s\n", instanceName)
	fmt.Printf("  Listen Address: %s\n", listenAddr)
	fmt.Printf("  Access Address: %s\n", accessAddr)
	fmt.Printf("  ASR Sidecar: http://%s:%d/%s\n", asrHost, asrPort, asrName)
	fmt.Println()

	metrics.SetCritical("etcd")

	b := speech.NewBuilder()

	b.MakeASR(asrHost, asrPort, asrName)

	if err := b.MakeTmp(tmpDir); err != nil {
		return fmt.Errorf("tmp dir: %v", err)
	}
	fmt.Println("✓ Scratch directory ready")

	if err := b.MakeEtcd(etcdEndpoints(cmd), serviceName, instanceName, accessAddr, ttl); err != nil {
		return fmt.Errorf("etcd: %v", err)
	}
	metrics.RegisterComponent("etcd", true, "registered")
	fmt.Println("✓ Registered in etcd")

	b.MakeRPC(listenAddr)

	srv, err := b.Build()
	if err != nil {
		return fmt.Errorf("failed to build speech service: %v", err)
	}

	stopMetrics := serveMetrics(metricsAddr, nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- fmt.Errorf("rpc server error: %v", err)
		}
	}()

	fmt.Println()
	fmt.Println("Speech service is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
	}

	stopMetrics()
	srv.Stop()

	fmt.Println("✓ Shutdown complete")
	return nil
}
