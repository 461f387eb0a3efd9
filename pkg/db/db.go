package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config selects the MySQL server and schema.
type Config struct {
	User         string
	Password     string
	Host         string
	Port         int
	Database     string
	MaxOpenConns int
}

// Open connects to MySQL and verifies the connection. parseTime is on so
// TIMESTAMP columns scan into time.Time.
func Open(cfg Config) (*sql.DB, error) {
	if cfg.Port == 0 {
		cfg.Port = 3306
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 10
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxOpenConns)
	conn.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return conn, nil
}

// NullStr builds a nullable column value: empty strings persist as NULL so
// the unique indexes on nickname and email ignore unset fields.
func NullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
