package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nileshbarai/distrokhata-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestInitialSchemaContainsLedgerConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_initial_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no initial schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE UNIQUE INDEX uq_orders_order_no ON orders (order_no)",
		"CREATE INDEX idx_ledger_tenant_distributor ON ledger_entries (tenant_id, distributor_id)",
		"running_balance NUMERIC(12, 2) NOT NULL",
		"REFERENCES orders (id) ON DELETE CASCADE",
		"CREATE UNIQUE INDEX uq_usage_tenant_period ON usage_counters (tenant_id, period_month)",
		"DROP TABLE IF EXISTS ledger_entries",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
