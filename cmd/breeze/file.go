package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/breezechat/breeze/pkg/file"
	"github.com/breezechat/breeze/pkg/metrics"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Run the file service",
	Long: `Run the blob storage service. Every binary payload in the platform
(avatars, images, attachments, speech recordings) is stored here under a
generated id and fetched back by id.`,
	RunE: runFile,
}

func init() {
	serviceFlags(fileCmd, "file_service")

	fileCmd.Flags().String("store-root", "./data", "Directory blobs are stored in")
}

func runFile(cmd *cobra.Command, args []string) error {
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
	storeRoot, _ := cmd.Flags().GetString("store-root")

	fmt.Println("Starting file service...")
	fmt.Printf("  Service: %s\n", serviceName)
	fmt.Printf("  Instance: %s\n", instanceName)
	fmt.Printf("  Listen Address: %s\n", listenAddr)
	fmt.Printf("  Access Address: %s\n", accessAddr)
	fmt.Printf("  Store Root: %s\n", storeRoot)
	fmt.Println()

	metrics.SetCritical("store", "etcd")

	b := file.NewBuilder()

	if err := b.MakeStore(storeRoot); err != nil {
		return fmt.Errorf("store: %v", err)
	}
	metrics.RegisterComponent("store", true, "writable")
	fmt.Println("✓ Blob store ready")

	if err := b.MakeEtcd(etcdEndpoints(cmd), serviceName, instanceName, accessAddr, ttl); err != nil {
		return fmt.Errorf("etcd: %v", err)
	}
	metrics.RegisterComponent("etcd", true, "registered")
	fmt.Println("✓ Registered in etcd")

	b.MakeRPC(listenAddr)

	srv, err := b.Build()
	if err != nil {
		return fmt.Errorf("failed to build file service: %v", err)
	}

	stopMetrics := serveMetrics(metricsAddr, nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- fmt.Errorf("rpc server error: %v", err)
		}
	}()

	fmt.Println()
	fmt.Println("File service is running. Press Ctrl+C to stop.")

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
