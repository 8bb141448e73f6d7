package repositories

import (
	"testing"
	"time"

	"github.com/desertthunder/smolfy/internal/models"
	"github.com/desertthunder/smolfy/internal/shared"
)

func testRepo(t *testing.T) *TokenRepository {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return NewTokenRepository(db)
}

func TestTokenRepository(t *testing.T) {
	record := &models.TokenRecord{
		AccessToken:  "token-abc",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Millisecond),
		RefreshToken: "refresh-xyz",
	}

	t.Run("load returns nil when empty", func(t *testing.T) {
		repo := testRepo(t)

		rec, err := repo.Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec != nil {
			t.Errorf("expected nil record, got %+v", rec)
		}
	})

	t.Run("save then load round trips", func(t *testing.T) {
		repo := testRepo(t)

		if err := repo.Save(record); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		loaded, err := repo.Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loaded == nil || loaded.AccessToken != "token-abc" || loaded.RefreshToken != "refresh-xyz" {
			t.Fatalf("unexpected record %+v", loaded)
		}
		if !loaded.Expiry.Equal(record.Expiry) {
			t.Errorf("expected expiry %v, got %v", record.Expiry, loaded.Expiry)
		}
	})

	t.Run("save replaces the previous record", func(t *testing.T) {
		repo := testRepo(t)

		if err := repo.Save(record); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		updated := &models.TokenRecord{
			AccessToken: "token-def",
			Expiry:      time.Now().Add(2 * time.Hour),
		}
		if err := repo.Save(updated); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		loaded, err := repo.Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loaded.AccessToken != "token-def" || loaded.RefreshToken != "" {
			t.Errorf("expected replacement record, got %+v", loaded)
		}
	})

	t.Run("save rejects empty records", func(t *testing.T) {
		repo := testRepo(t)

		if err := repo.Save(nil); err == nil {
			t.Error("expected error for nil record")
		}
		if err := repo.Save(&models.TokenRecord{}); err == nil {
			t.Error("expected error for record without access token")
		}
	})

	t.Run("delete removes the record", func(t *testing.T) {
		repo := testRepo(t)

		if err := repo.Save(record); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := repo.Delete(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		loaded, err := repo.Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loaded != nil {
			t.Errorf("expected nil after delete, got %+v", loaded)
		}
	})

	t.Run("delete on an empty table succeeds", func(t *testing.T) {
		if err := testRepo(t).Delete(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
