package monitoring

import (
	"context"
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConnectorRejectsMalformedDSN(t *testing.T) {
	c := NewConnector("=")

	if _, err := c.Connect(context.Background()); err == nil {
		t.Fatal("expected connect error for malformed DSN")
	}
	if got := testutil.ToFloat64(DBConnectFailuresTotal); got < 1 {
		t.Errorf("expected at least one recorded connect failure, got %f", got)
	}
}

func TestConnectorDriver(t *testing.T) {
	c := NewConnector("host=localhost dbname=portal")
	if c.Driver() == nil {
		t.Fatal("expected a backing driver")
	}
}

func TestCollectorExportsPoolGauges(t *testing.T) {
	// The pool never connects here; Stats works regardless.
	db := sql.OpenDB(NewConnector("host=localhost dbname=portal"))
	defer db.Close()

	collector := NewDBMetricsCollector(db)
	collector.collectMetrics()

	if got := testutil.ToFloat64(DBPoolOpenConnections); got != 0 {
		t.Errorf("expected 0 open connections, got %f", got)
	}
	if got := testutil.ToFloat64(DBPoolInUseConnections); got != 0 {
		t.Errorf("expected 0 in-use connections, got %f", got)
	}
}
