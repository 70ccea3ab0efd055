// Standalone migration runner: applies a SQL file against the configured
// MySQL instance. The application also creates its tables on startup; this
// exists for environments where the bot user has no DDL rights.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

func main() {
	envFileFlag := flag.String("env-file", "", "Path to .env file")
	migrationFlag := flag.String("migration", "migrate.sql", "Path to migration file")
	flag.Parse()

	loadEnv(*envFileFlag)

	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "3306")
	username := getEnvOrDefault("DB_USER", "root")
	password := getEnvOrDefault("DB_PASS", "password")
	database := getEnvOrDefault("DB_NAME", "event_payments")

	fmt.Printf("Connecting to MySQL at %s:%s as %s\n", host, port, username)

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&multiStatements=true",
		username, password, host, port, database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	fmt.Println("Connected to database successfully")

	migrationSQL, err := os.ReadFile(*migrationFlag)
	if err != nil {
		log.Fatalf("Failed to read migration file: %v", err)
	}

	fmt.Printf("Executing migration from %s\n", *migrationFlag)
	if _, err := db.Exec(string(migrationSQL)); err != nil {
		log.Fatalf("Failed to execute migration: %v", err)
	}

	fmt.Println("Migration completed successfully")
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func loadEnv(envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err == nil {
			fmt.Printf("Loaded environment from %s\n", envFile)
			return
		}
	}
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment from .env")
		return
	}
	fmt.Println("No .env file found, using system environment variables")
}
