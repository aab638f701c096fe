package app

import (
	"context"
	"errors"
	"testing"

	"tm-go/internal/config"
	"tm-go/internal/tm"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := config.NewConfig(t.TempDir())
	cfg.Store.Type = "memory"
	cfg.Store.SeedPassword = "test-password"
	cfg.Audit.Type = "memory"
	cfg.Mirror.Type = "memory"
	cfg.Encryption.Type = "test"

	a, err := NewApp(cfg, "Test")
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	t.Cleanup(func() {
		a.Close()
	})
	return a
}

func TestApp_Snapshots(t *testing.T) {
	t.Run("push, list and pull restore the document", func(t *testing.T) {
		a := newTestApp(t)
		ctx := context.Background()

		usr, err := a.Service().CreateUser(tm.NewUser{
			Role:             tm.RoleParentEleve,
			Email:            "parent@example.com",
			Password:         "secret-1",
			Nom:              "Kouassi",
			Prenoms:          "Awa",
			CommuneApprenant: "Cocody",
		})
		if err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}

		key, err := a.PushSnapshot(ctx)
		if err != nil {
			t.Fatalf("PushSnapshot() error = %v", err)
		}

		keys, err := a.ListSnapshots(ctx)
		if err != nil {
			t.Fatalf("ListSnapshots() error = %v", err)
		}
		if len(keys) != 1 || keys[0] != key {
			t.Errorf("ListSnapshots() = %v, want [%s]", keys, key)
		}

		// Wreck the live state, then restore from the snapshot.
		if err := a.Service().DeleteUser(usr.ID); err != nil {
			t.Fatalf("DeleteUser() error = %v", err)
		}

		pulled, err := a.PullSnapshot(ctx, "", "")
		if err != nil {
			t.Fatalf("PullSnapshot() error = %v", err)
		}
		if pulled != key {
			t.Errorf("PullSnapshot() = %q, want %q", pulled, key)
		}

		if _, err := a.Service().UserByID(usr.ID); err != nil {
			t.Errorf("UserByID() error = %v, user not restored", err)
		}
	})

	t.Run("pull fails on an empty mirror", func(t *testing.T) {
		a := newTestApp(t)

		if _, err := a.PullSnapshot(context.Background(), "", ""); err == nil {
			t.Error("PullSnapshot() expected error")
		}
	})

	t.Run("mirror operations fail when no mirror is configured", func(t *testing.T) {
		cfg := config.NewConfig(t.TempDir())
		cfg.Store.Type = "memory"
		cfg.Audit.Type = "memory"
		cfg.Encryption.Type = "test"

		a, err := NewApp(cfg, "Test")
		if err != nil {
			t.Fatalf("NewApp() error = %v", err)
		}
		defer a.Close()

		if _, err := a.PushSnapshot(context.Background()); err == nil {
			t.Error("PushSnapshot() expected error")
		}
	})
}

func TestNewApp(t *testing.T) {
	t.Run("rejects an unknown store type", func(t *testing.T) {
		cfg := config.NewConfig(t.TempDir())
		cfg.Store.Type = "carrier-pigeon"

		if _, err := NewApp(cfg, "Test"); err == nil {
			t.Error("NewApp() expected error")
		}
	})

	t.Run("seeds the administrator accounts", func(t *testing.T) {
		a := newTestApp(t)

		for _, seed := range tm.SeedAdmins {
			if _, err := a.Service().UserByEmail(seed.Email); errors.Is(err, tm.ErrNotFound) {
				t.Errorf("seed admin %s missing", seed.Email)
			}
		}
	})
}
