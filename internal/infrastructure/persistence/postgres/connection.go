package postgres

import (
	"database/sql"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/config"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/monitoring"
)

type Connection struct {
	db *sql.DB
}

// NewConnection opens the portal's pgx-backed pool through the instrumented
// connector so every connection establishment is timed.
func NewConnection(cfg config.DatabaseConfig) (*Connection, error) {
	db := sql.OpenDB(monitoring.NewConnector(cfg.GetDSN()))

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(50)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	return &Connection{db: db}, nil
}

func NewConnectionFromDB(db *sql.DB) *Connection {
	return &Connection{db: db}
}

func (c *Connection) Close() error {
	return c.db.Close()
}

func (c *Connection) GetDB() *sql.DB {
	return c.db
}
