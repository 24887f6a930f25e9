package sqlite_test

import (
	"context"
	"testing"

	"github.com/havelihousing/backoffice/store"
	"github.com/havelihousing/backoffice/store/sqlite"
	"github.com/havelihousing/backoffice/store/storetest"
)

func openMemory(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, openMemory)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openMemory(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
