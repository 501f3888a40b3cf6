package db

import (
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreSequential(t *testing.T) {
	goose.SetBaseFS(migrationFS)
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	migrations, err := goose.CollectMigrations("migrations", 0, goose.MaxVersion)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	for i, m := range migrations {
		require.Equal(t, int64(i+1), m.Version, m.Source)
	}
}

func TestSaleKeepsProductIDOfDeletedProduct(t *testing.T) {
	raw, err := migrationFS.ReadFile("migrations/00003_sale_product_ref_brand_links.sql")
	require.NoError(t, err)
	up, _, _ := strings.Cut(string(raw), "-- +goose Down")

	require.Contains(t, up, "ALTER TABLE sales DROP CONSTRAINT sales_product_id_fkey")
	require.Contains(t, up, "REFERENCES categories (id) ON DELETE RESTRICT")
	require.NotContains(t, up, "SET NULL")
}
