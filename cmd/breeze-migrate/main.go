package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/breezechat/breeze/pkg/db"
)

var (
	schemaPath = flag.String("schema", "deploy/schema.sql", "Path to the schema file")
	mysqlUser  = flag.String("mysql-user", "root", "MySQL user")
	mysqlPswd  = flag.String("mysql-password", "", "MySQL password")
	mysqlHost  = flag.String("mysql-host", "127.0.0.1", "MySQL host")
	mysqlPort  = flag.Int("mysql-port", 3306, "MySQL port")
	database   = flag.String("mysql-database", "BreezeChat", "Database to create and populate")
	dryRun     = flag.Bool("dry-run", false, "Show what would be applied without making changes")
)

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Breeze Schema Migration Tool")
	log.Println("============================")

	if !identPattern.MatchString(*database) {
		log.Fatalf("Invalid database name: %q", *database)
	}

	statements, err := loadSchema(*schemaPath)
	if err != nil {
		log.Fatalf("Failed to load schema: %v", err)
	}

	log.Printf("Schema: %s", *schemaPath)
	log.Printf("Database: %s@%s:%d/%s", *mysqlUser, *mysqlHost, *mysqlPort, *database)
	log.Printf("Statements: %d", len(statements))
	log.Printf("Dry run: %v", *dryRun)

	if *dryRun {
		log.Println("\n[DRY RUN] Would perform the following operations:")
		log.Printf("1. CREATE DATABASE IF NOT EXISTS %s", *database)
		for i, stmt := range statements {
			log.Printf("%d. %s", i+2, headline(stmt))
		}
		log.Println("\nDry run completed. No changes made.")
		log.Println("Run without --dry-run to apply the schema.")
		return
	}

	// The target database may not exist yet, so the first connection has no
	// default database.
	admin, err := db.Open(db.Config{
		User:     *mysqlUser,
		Password: *mysqlPswd,
		Host:     *mysqlHost,
		Port:     *mysqlPort,
	})
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	createDB := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s DEFAULT CHARACTER SET utf8mb4", *database)
	if _, err := admin.Exec(createDB); err != nil {
		admin.Close()
		log.Fatalf("Failed to create database: %v", err)
	}
	admin.Close()
	log.Printf("✓ Database %s ready", *database)

	conn, err := db.Open(db.Config{
		User:     *mysqlUser,
		Password: *mysqlPswd,
		Host:     *mysqlHost,
		Port:     *mysqlPort,
		Database: *database,
	})
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", *database, err)
	}
	defer conn.Close()

	for i, stmt := range statements {
		if _, err := conn.Exec(stmt); err != nil {
			log.Fatalf("Statement %d failed (%s): %v", i+1, headline(stmt), err)
		}
		log.Printf("✓ %s (%d/%d)", headline(stmt), i+1, len(statements))
	}

	log.Println("\n✓ Migration completed successfully!")
	log.Println("Every statement is idempotent; rerunning this tool is safe.")
}

// loadSchema reads a schema file and splits it into executable statements,
// dropping line comments and blank statements.
func loadSchema(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var clean []string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") {
			continue
		}
		clean = append(clean, line)
	}

	var statements []string
	for _, stmt := range strings.Split(strings.Join(clean, "\n"), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	if len(statements) == 0 {
		return nil, fmt.Errorf("no statements in %s", path)
	}
	return statements, nil
}

// headline compresses a statement to its first line for progress output.
func headline(stmt string) string {
	line := stmt
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		line = stmt[:i]
	}
	line = strings.TrimSpace(line)
	return strings.TrimSpace(strings.TrimSuffix(line, "("))
}
