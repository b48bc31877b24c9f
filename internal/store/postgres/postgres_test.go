package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gompdf/cutticket/internal/store"
	"github.com/gompdf/cutticket/internal/store/storetest"
)

// TestStore needs a scratch database; its records table is emptied per subtest.
func TestStore(t *testing.T) {
	dsn := os.Getenv("CUTTICKET_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CUTTICKET_TEST_DATABASE_URL not set")
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := Open(ctx, dsn, nil)
		require.NoError(t, err)
		_, err = s.pool.Exec(ctx, `TRUNCATE records`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
