package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/breezechat/breeze/pkg/metrics"
	"github.com/breezechat/breeze/pkg/transmit"
)

var transmitCmd = &cobra.Command{
	Use:   "transmit",
	Short: "Run the transmit service",
	Long: `Run the message transmit service, the write entry point of the
messaging pipeline. Each send is stamped with a fresh message id and the
server time, published to the broker for persistence, and returned with
the session's member list so gateways can fan copies out.`,
	RunE: runTransmit,
}

func init() {
	serviceFlags(transmitCmd, "transmit_service")
	mysqlFlags(transmitCmd)
	rabbitFlags(transmitCmd)

	transmitCmd.Flags().String("user-service-name", "user_service", "Service name sender profiles are resolved from")
}

func runTransmit(cmd *cobra.Command, args []string) error {
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
	userService, _ := cmd.Flags().GetString("user-service-name")
	mqHost, _ := cmd.Flags().GetString("rabbitmq-host")
	mqUser, _ := cmd.Flags().GetString("rabbitmq-user")
	mqPassword, _ := cmd.Flags().GetString("rabbitmq-password")
	exchange, _ := cmd.Flags().GetString("rabbitmq-exchange")
	queue, _ := cmd.Flags().GetString("rabbitmq-queue")

	fmt.Println("Starting transmit service...")
	fmt.Printf("  Service: %s\n", serviceName)
	fmt.Printf("  Instance: %s\n", instanceName)
	fmt.Printf("  Listen Address: %s\n", listenAddr)
	fmt.Printf("  Access Address: %s\n", accessAddr)
	fmt.Printf("  Exchange: %s\n", exchange)
	fmt.Println()

	metrics.SetCritical("mysql", "rabbitmq", "etcd")

	b := transmit.NewBuilder(userService)

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
		return fmt.Errorf("failed to build transmit service: %v", err)
	}

	stopMetrics := serveMetrics(metricsAddr, srv.Manager())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- fmt.Errorf("rpc server error: %v", err)
		}
	}()

	fmt.Println()
	fmt.Println("Transmit service is running. Press Ctrl+C to stop.")

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
