package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/breezechat/breeze/pkg/cache"
	"github.com/breezechat/breeze/pkg/email"
	"github.com/breezechat/breeze/pkg/metrics"
	"github.com/breezechat/breeze/pkg/user"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Run the user service",
	Long: `Run the account service: registration, login, verification codes,
profile reads and writes, and user search.

Profiles live in MySQL and Elasticsearch, sessions and verification codes
in Redis. Avatars are stored through the file service, which is found via
etcd discovery.`,
	RunE: runUser,
}

func init() {
	serviceFlags(userCmd, "user_service")
	mysqlFlags(userCmd)

	userCmd.Flags().String("file-service-name", "file_service", "Service name avatars are stored under")
	userCmd.Flags().String("es-url", "http://127.0.0.1:9200", "Elasticsearch URLs, comma separated")
	userCmd.Flags().String("redis-addr", "127.0.0.1:6379", "Redis address")
	userCmd.Flags().String("redis-password", "", "Redis password")
	userCmd.Flags().Int("redis-db", 0, "Redis database number")
	userCmd.Flags().String("email-from", "", "Verification code sender address")
	userCmd.Flags().String("email-smtp-host", "", "SMTP server host")
	userCmd.Flags().Int("email-smtp-port", 465, "SMTP server port")
	userCmd.Flags().String("email-username", "", "SMTP login user")
	userCmd.Flags().String("email-password", "", "SMTP login password or app code")
	userCmd.Flags().String("classifier-host", "127.0.0.1", "Moderation sidecar host")
	userCmd.Flags().Int("classifier-port", 8000, "Moderation sidecar port")
	userCmd.Flags().String("classifier-name", "classify", "Moderation sidecar endpoint name")
}

func runUser(cmd *cobra.Command, args []string) error {
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
	esURL, _ := cmd.Flags().GetString("es-url")

	fmt.Println("Starting user service...")
	fmt.Printf("  Service: %s\n", serviceName)
	fmt.Printf("  Instance: %s\n", instanceName)
	fmt.Printf("  Listen Address: %s\n", listenAddr)
	fmt.Printf("  Access Address: %s\n", accessAddr)
	fmt.Println()

	metrics.SetCritical("elasticsearch", "mysql", "redis", "etcd")

	b := user.NewBuilder(fileService)

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

	redisAddr, _ := cmd.Flags().GetString("redis-addr")
	redisPassword, _ := cmd.Flags().GetString("redis-password")
	redisDB, _ := cmd.Flags().GetInt("redis-db")
	if err := b.MakeRedis(cache.Config{Addr: redisAddr, Password: redisPassword, DB: redisDB}); err != nil {
		return fmt.Errorf("redis: %v", err)
	}
	metrics.RegisterComponent("redis", true, "connected")
	fmt.Println("✓ Redis connected")

	emailFrom, _ := cmd.Flags().GetString("email-from")
	smtpHost, _ := cmd.Flags().GetString("email-smtp-host")
	smtpPort, _ := cmd.Flags().GetInt("email-smtp-port")
	emailUser, _ := cmd.Flags().GetString("email-username")
	emailPassword, _ := cmd.Flags().GetString("email-password")
	b.MakeEmail(email.Config{
		From:     emailFrom,
		SMTPHost: smtpHost,
		SMTPPort: smtpPort,
		Username: emailUser,
		Password: emailPassword,
	})

	classifierHost, _ := cmd.Flags().GetString("classifier-host")
	classifierPort, _ := cmd.Flags().GetInt("classifier-port")
	classifierName, _ := cmd.Flags().GetString("classifier-name")
	b.MakeClassifier(classifierHost, classifierPort, classifierName)

	if err := b.MakeEtcd(etcdEndpoints(cmd), serviceName, instanceName, accessAddr, ttl); err != nil {
		return fmt.Errorf("etcd: %v", err)
	}
	metrics.RegisterComponent("etcd", true, "registered")
	fmt.Println("✓ Registered in etcd")

	b.MakeRPC(listenAddr)

	srv, err := b.Build()
	if err != nil {
		return fmt.Errorf("failed to build user service: %v", err)
	}

	stopMetrics := serveMetrics(metricsAddr, srv.Manager())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- fmt.Errorf("rpc server error: %v", err)
		}
	}()

	fmt.Println()
	fmt.Println("User service is running. Press Ctrl+C to stop.")

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
