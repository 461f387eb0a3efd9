package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/breezechat/breeze/pkg/db"
)

// serviceFlags registers the flags every breeze service shares. Values from
// --config fill in whatever the command line leaves unset.
func serviceFlags(cmd *cobra.Command, defaultService string) {
	cmd.Flags().String("config", "", "YAML config file; keys mirror flag names")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("log-json", false, "Emit JSON logs instead of console output")
	cmd.Flags().String("service-name", defaultService, "Name this instance registers under")
	cmd.Flags().String("instance-name", "instance-1", "Instance name, unique within the service")
	cmd.Flags().String("etcd-address", "127.0.0.1:2379", "Registry endpoints, comma separated")
	cmd.Flags().Int64("etcd-ttl", 3, "Registration lease TTL in seconds")
	cmd.Flags().String("listen-addr", ":7070", "Address the RPC server listens on")
	cmd.Flags().String("access-addr", "127.0.0.1:7070", "Address peers use to reach this instance")
	cmd.Flags().String("metrics-addr", "", "Address for metrics and health probes (empty disables)")
}

// mysqlFlags registers the relational store flags.
func mysqlFlags(cmd *cobra.Command) {
	cmd.Flags().String("mysql-user", "root", "MySQL user")
	cmd.Flags().String("mysql-password", "", "MySQL password")
	cmd.Flags().String("mysql-host", "127.0.0.1", "MySQL host")
	cmd.Flags().Int("mysql-port", 3306, "MySQL port")
	cmd.Flags().String("mysql-database", "BreezeChat", "MySQL database name")
	cmd.Flags().Int("mysql-max-conns", 10, "MySQL connection pool size")
}

// rabbitFlags registers the message broker flags.
func rabbitFlags(cmd *cobra.Command) {
	cmd.Flags().String("rabbitmq-host", "127.0.0.1:5672", "RabbitMQ address with port")
	cmd.Flags().String("rabbitmq-user", "root", "RabbitMQ user")
	cmd.Flags().String("rabbitmq-password", "", "RabbitMQ password")
	cmd.Flags().String("rabbitmq-exchange", "breeze-exchange", "Exchange messages are published to")
	cmd.Flags().String("rabbitmq-queue", "breeze-message", "Queue the storage service consumes")
}

// applyConfigFile loads the YAML file named by --config, if any, and sets
// its values on flags the command line left untouched. Flags always win, so
// a config file works like a set of per-deployment defaults.
func applyConfigFile(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %v", err)
	}

	var values map[string]interface{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse config file: %v", err)
	}

	for name, value := range values {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown config key: %s", name)
		}
		if flag.Changed {
			continue
		}
		if err := cmd.Flags().Set(name, fmt.Sprintf("%v", value)); err != nil {
			return fmt.Errorf("config key %s: %v", name, err)
		}
	}
	return nil
}

// splitList splits a comma separated flag value, trimming whitespace.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// etcdEndpoints splits the --etcd-address flag into endpoints.
func etcdEndpoints(cmd *cobra.Command) []string {
	addr, _ := cmd.Flags().GetString("etcd-address")
	return splitList(addr)
}

// mysqlConfig collects the relational store flags.
func mysqlConfig(cmd *cobra.Command) db.Config {
	user, _ := cmd.Flags().GetString("mysql-user")
	password, _ := cmd.Flags().GetString("mysql-password")
	host, _ := cmd.Flags().GetString("mysql-host")
	port, _ := cmd.Flags().GetInt("mysql-port")
	database, _ := cmd.Flags().GetString("mysql-database")
	maxConns, _ := cmd.Flags().GetInt("mysql-max-conns")

	return db.Config{
		User:         user,
		Password:     password,
		Host:         host,
		Port:         port,
		Database:     database,
		MaxOpenConns: maxConns,
	}
}
