package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/breezechat/breeze/pkg/metrics"
	"github.com/breezechat/breeze/pkg/msgstore"
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Run the message storage service",
	Long: `Run the message storage service. It consumes message envelopes from
the broker, writes text to MySQL and Elasticsearch and binary payloads to
the file service, and answers history, recent and search queries.`,
	RunE: runStorage,
}

func init() {
	serviceFlags(storageCmd, "message_service")
	mysqlFlags(storageCmd)
	rabbitFlags(storageCmd)

	storageCmd.Flags().String("file-service-name", "file_service", "Service name binary payloads are stored under")
	storageCmd.Flags().String("user-service-name", "user_service", "Service name sender profiles are resolved from")
	storageCmd.Flags().String("es-url", "http://127.0.0.1:9200", "Elasticsearch URLs, comma separated")
}

func runStorage(cmd *cobra.Command, args []string) error {
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
	fileService, _ := cmd.Flags().GetString("file-service-name")
	userService, _ := cmd.Flags().GetString("user-service-name")
	esURL, _ := cmd.Flags().GetString("es-url")
	mqHost, _ := cmd.Flags().GetString("rabbitmq-host")
	mqUser, _ := cmd.Flags().GetString("rabbitmq-user")
	mqPassword, _ := cmd.Flags().GetString("rabbitmq-password")
	exchange, _ := cmd.Flags().GetString("rabbitmq-exchange")
	queue, _ := cmd.Flags().GetString("rabbitmq-queue")

	fmt.Println("Starting message storage service...")
	fmt.Printf("  Service: %s\n", serviceName)
	fmt.Printf("  Instance: %s\n", instanceName)
	fmt.Printf("  Listen Address: %s\n", listenAddr)
	fmt.Printf("  Access Address: %s\n", accessAddr)
	fmt.Printf("  Queue: %s\n", queue)
	fmt.Println()

	metrics.SetCritical("elasticsearch", "mysql", "rabbitmq", "etcd")

	b := msgstore.NewBuilder(fileService, userService)

	if err := b.MakeES(splitList(esURL)); err != nil {
		return fmt.Errorf("elasticsearch: %v", err)
	}
	metrics.RegisterComponent("elasticsearch", true, "connected")
	fmt.Println("✓ Elasticsearch connected")

	if err := b.MakeMySQL(mysqlConfig(cmd)); err != nil {
		return fmt.Errorf("mysql: %v", err)
	}
	metrics.RegisterComponent("mysql", true, "connected")
	fmt.Println("✓ MySQL connected")

	if err := b.MakeRabbitMQ(mqUser, mqPassword, mqHost, exchange, queue); err != nil {
		return fmt.Errorf("rabbitmq: %v", err)
	}
	metrics.RegisterComponent("rabbitmq", true, "connected")
	fmt.Println("✓ RabbitMQ connected")

	if err := b.MakeEtcd(etcdEndpoints(cmd), serviceName, instanceName, accessAddr, ttl); err != nil {
		return fmt.Errorf("etcd: %v", err)
	}
	metrics.RegisterComponent("etcd", true, "registered")
	fmt.Println("✓ Registered in etcd")

	b.MakeRPC(listenAddr)

	srv, err := b.Build()
	if err != nil {
		return fmt.Errorf("failed to build message storage service: %v", err)
	}

	stopMetrics := serveMetrics(metricsAddr, srv.Manager())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- fmt.Errorf("server error: %v", err)
		}
	}()

	fmt.Println()
	fmt.Println("Message storage service is running. Press Ctrl+C to stop.")

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
