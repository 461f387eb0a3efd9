package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	serviceFlags(cmd, "test_service")
	mysqlFlags(cmd)
	return cmd
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "breeze.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestApplyConfigFileFillsUnsetFlags(t *testing.T) {
	cmd := newTestCmd()
	path := writeConfig(t, "mysql-host: db.internal\nmysql-port: 3307\nlog-json: true\n")
	require.NoError(t, cmd.ParseFlags([]string{"--config", path}))

	require.NoError(t, applyConfigFile(cmd))

	host, _ := cmd.Flags().GetString("mysql-host")
	assert.Equal(t, "db.internal", host)
	port, _ := cmd.Flags().GetInt("mysql-port")
	assert.Equal(t, 3307, port)
	jsonOut, _ := cmd.Flags().GetBool("log-json")
	assert.True(t, jsonOut)
}

func TestApplyConfigFileFlagsWin(t *testing.T) {
	cmd := newTestCmd()
	path := writeConfig(t, "mysql-host: db.internal\nmysql-database: FromFile\n")
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--mysql-host", "cli.wins"}))

	require.NoError(t, applyConfigFile(cmd))

	host, _ := cmd.Flags().GetString("mysql-host")
	assert.Equal(t, "cli.wins", host)
	database, _ := cmd.Flags().GetString("mysql-database")
	assert.Equal(t, "FromFile", database)
}

func TestApplyConfigFileRejectsUnknownKey(t *testing.T) {
	cmd := newTestCmd()
	path := writeConfig(t, "mysql-hots: typo\n")
	require.NoError(t, cmd.ParseFlags([]string{"--config", path}))

	err := applyConfigFile(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key: mysql-hots")
}

func TestApplyConfigFileMissing(t *testing.T) {
	cmd := newTestCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", "/nonexistent/breeze.yaml"}))
	require.Error(t, applyConfigFile(cmd))

	// No --config means nothing to do.
	cmd = newTestCmd()
	require.NoError(t, cmd.ParseFlags(nil))
	require.NoError(t, applyConfigFile(cmd))
}

func TestApplyConfigFileBadYAML(t *testing.T) {
	cmd := newTestCmd()
	path := writeConfig(t, "mysql-host: [unterminated\n")
	require.NoError(t, cmd.ParseFlags([]string{"--config", path}))
	require.Error(t, applyConfigFile(cmd))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a:2379"}, splitList("a:2379"))
	assert.Equal(t, []string{"a:2379", "b:2379"}, splitList("a:2379, b:2379"))
}

func TestMysqlConfig(t *testing.T) {
	cmd := newTestCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--mysql-user", "breeze",
		"--mysql-password", "s3cret",
		"--mysql-port", "3307",
	}))

	cfg := mysqlConfig(cmd)
	assert.Equal(t, "breeze", cfg.User)
	assert.Equal(t, "s3cret", cfg.Password)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, "BreezeChat", cfg.Database)
	assert.Equal(t, 10, cfg.MaxOpenConns)
}
