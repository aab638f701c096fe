package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"tm-go/internal/store"
	"tm-go/internal/testutil"
	"tm-go/internal/tm"
)

func newFSStore(t *testing.T) (*store.FileSystemStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tm.json")
	st, err := store.NewFileSystemStore(path, testutil.FixedClock(), testutil.NewStubIDGenerator(), testutil.SeedPassword, tm.NewNopLogger())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	return st, path
}

func TestFileSystemStore_Load(t *testing.T) {
	t.Run("seeds a fresh document on first run", func(t *testing.T) {
		st, path := newFSStore(t)

		doc, err := st.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if !doc.Metadata.Initialized {
			t.Error("Metadata.Initialized = false")
		}
		if len(doc.Users) != len(tm.SeedAdmins) {
			t.Errorf("len(Users) = %d, want %d", len(doc.Users), len(tm.SeedAdmins))
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("seeded document not persisted: %v", err)
		}
	})

	t.Run("re-adds missing seed administrators", func(t *testing.T) {
		st, _ := newFSStore(t)

		doc, err := st.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		doc.Users = []tm.User{}
		if err := st.Save(doc); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		doc, err = st.Load()
		if err != nil {
			t.Fatalf("second Load() error = %v", err)
		}
		for _, seed := range tm.SeedAdmins {
			if doc.UserByEmail(seed.Email) == nil {
				t.Errorf("seed admin %s not re-added", seed.Email)
			}
		}
	})

	t.Run("sets aside a corrupt document and reseeds", func(t *testing.T) {
		st, path := newFSStore(t)

		if err := os.WriteFile(path, []byte("{truncated"), 0600); err != nil {
			t.Fatalf("writing corrupt file: %v", err)
		}

		doc, err := st.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(doc.Users) != len(tm.SeedAdmins) {
			t.Errorf("len(Users) = %d, want %d", len(doc.Users), len(tm.SeedAdmins))
		}
		if _, err := os.Stat(path + ".corrupt"); err != nil {
			t.Errorf("corrupt document not set aside: %v", err)
		}
	})

	t.Run("backfills missing collections", func(t *testing.T) {
		st, path := newFSStore(t)

		// An older serialization without approvedRelations.
		payload := `{"users": [], "messages": [], "notifications": [], "assignments": [], "metadata": {"version": "1.0"}}`
		if err := os.WriteFile(path, []byte(payload), 0600); err != nil {
			t.Fatalf("writing document: %v", err)
		}

		doc, err := st.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if doc.ApprovedRelations == nil {
			t.Error("ApprovedRelations = nil, want empty slice")
		}
	})
}

func TestFileSystemStore_Save(t *testing.T) {
	t.Run("round-trips the document", func(t *testing.T) {
		st, _ := newFSStore(t)

		doc, err := st.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		doc.Users = append(doc.Users, tm.User{ID: "u1", Role: tm.RoleParentEleve, Email: "p@example.com"})
		if err := st.Save(doc); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := st.Load()
		if err != nil {
			t.Fatalf("second Load() error = %v", err)
		}
		if got.UserByID("u1") == nil {
			t.Error("saved user not found after reload")
		}
	})

	t.Run("stamps metadata", func(t *testing.T) {
		st, _ := newFSStore(t)

		doc := tm.NewDocument(testutil.FixedClock().Now())
		doc.Metadata.Version = ""
		doc.Metadata.Initialized = false
		if err := st.Save(doc); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if doc.Metadata.Version != tm.DocumentVersion {
			t.Errorf("Version = %q, want %q", doc.Metadata.Version, tm.DocumentVersion)
		}
		if !doc.Metadata.Initialized {
			t.Error("Initialized = false")
		}
		if doc.Metadata.LastUpdated.IsZero() || doc.Metadata.LastSync.IsZero() {
			t.Error("timestamps not stamped")
		}
	})

	t.Run("keeps the previous version as a backup", func(t *testing.T) {
		st, path := newFSStore(t)

		doc, err := st.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if err := st.Save(doc); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if _, err := os.Stat(path + ".bak"); err != nil {
			t.Errorf("backup copy missing: %v", err)
		}
	})
}
