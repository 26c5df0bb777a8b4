// Package db persists resolution runs to Postgres. Persistence is
// optional: the resolver itself never touches the database, a run is
// saved only when the caller asks for it.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/storematch/internal/config"
)

// Connection wraps the shared Postgres handle.
type Connection struct {
	DB *sql.DB
}

// NewConnection opens and pings a Postgres connection using the
// PGHOST/PGPORT/PGUSER/PGPASSWORD/PGDATABASE environment variables.
func NewConnection() (*Connection, error) {
	host := config.GetEnv("PGHOST", "localhost")
	port := config.GetEnv("PGPORT", "5432")
	user := config.GetEnv("PGUSER", "storematch")
	password := config.GetEnv("PGPASSWORD", "storematch")
	dbname := config.GetEnv("PGDATABASE", "storematch")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)

	return &Connection{DB: db}, nil
}

// Close closes the database connection.
func (c *Connection) Close() error {
	return c.DB.Close()
}
