package mongo_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/havelihousing/backoffice/store"
	"github.com/havelihousing/backoffice/store/mongo"
	"github.com/havelihousing/backoffice/store/storetest"
)

// openTestDB creates a throwaway database on TEST_MONGODB_URI and drops it
// afterwards. It skips when the variable is unset.
func openTestDB(t *testing.T) store.Store {
	t.Helper()
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set; skipping mongo integration test")
	}

	ctx := context.Background()
	name := "backoffice_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	s, err := mongo.Connect(ctx, uri, name)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = s.DB().Drop(context.Background())
		_ = s.Close()
	})

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, openTestDB)
}
