package monitoring

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/jackc/pgx/v4/stdlib"
)

// Connector opens pgx-backed connections for the portal's database pool and
// times every establishment. Use it with sql.OpenDB.
type Connector struct {
	dsn string
	drv driver.Driver
}

func NewConnector(dsn string) *Connector {
	return &Connector{
		dsn: dsn,
		drv: stdlib.GetDefaultDriver(),
	}
}

func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	start := time.Now()
	conn, err := c.drv.Open(c.dsn)
	DBConnectDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		DBConnectFailuresTotal.Inc()
		return nil, err
	}
	return conn, nil
}

func (c *Connector) Driver() driver.Driver {
	return c.drv
}

// DBMetricsCollector periodically exports the pool's sql.DBStats as gauges.
type DBMetricsCollector struct {
	db *sql.DB
}

func NewDBMetricsCollector(db *sql.DB) *DBMetricsCollector {
	return &DBMetricsCollector{
		db: db,
	}
}

func (c *DBMetricsCollector) StartCollecting(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.collectMetrics()
			}
		}
	}()
}

func (c *DBMetricsCollector) collectMetrics() {
	stats := c.db.Stats()

	DBPoolOpenConnections.Set(float64(stats.OpenConnections))
	DBPoolInUseConnections.Set(float64(stats.InUse))
	DBPoolIdleConnections.Set(float64(stats.Idle))
	DBPoolWaitCount.Set(float64(stats.WaitCount))
	DBPoolWaitSeconds.Set(stats.WaitDuration.Seconds())
}

func InstrumentQuery(ctx context.Context, db *sql.DB, queryType, table, query string, args ...interface{}) (*sql.Rows, error) {
	end := TimeDBQuery(queryType, table)
	defer end()

	return db.QueryContext(ctx, query, args...)
}

func InstrumentExec(ctx context.Context, db *sql.DB, queryType, table, query string, args ...interface{}) (sql.Result, error) {
	end := TimeDBQuery(queryType, table)
	defer end()

	return db.ExecContext(ctx, query, args...)
}

func InstrumentQueryRow(ctx context.Context, db *sql.DB, queryType, table, query string, args ...interface{}) *sql.Row {
	end := TimeDBQuery(queryType, table)
	defer end()

	return db.QueryRowContext(ctx, query, args...)
}

func InstrumentTxQuery(ctx context.Context, tx *sql.Tx, queryType, table, query string, args ...interface{}) (*sql.Rows, error) {
	end := TimeDBQuery(queryType, table)
	defer end()

	return tx.QueryContext(ctx, query, args...)
}

func InstrumentTxExec(ctx context.Context, tx *sql.Tx, queryType, table, query string, args ...interface{}) (sql.Result, error) {
	end := TimeDBQuery(queryType, table)
	defer end()

	return tx.ExecContext(ctx, query, args...)
}

func InstrumentTxQueryRow(ctx context.Context, tx *sql.Tx, queryType, table, query string, args ...interface{}) *sql.Row {
	end := TimeDBQuery(queryType, table)
	defer end()

	return tx.QueryRowContext(ctx, query, args...)
}
