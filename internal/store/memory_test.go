package store_test

import (
	"testing"
	"time"

	"tm-go/internal/store"
	"tm-go/internal/testutil"
	"tm-go/internal/tm"
)

func TestMemoryStore(t *testing.T) {
	t.Run("seeds on first load", func(t *testing.T) {
		st := store.NewMemoryStore(testutil.FixedClock(), testutil.NewStubIDGenerator(), testutil.SeedPassword)

		doc, err := st.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(doc.Users) != len(tm.SeedAdmins) {
			t.Errorf("len(Users) = %d, want %d", len(doc.Users), len(tm.SeedAdmins))
		}
		if !doc.Metadata.Initialized {
			t.Error("Metadata.Initialized = false")
		}
	})

	t.Run("hands out independent copies", func(t *testing.T) {
		st := store.NewMemoryStore(testutil.FixedClock(), testutil.NewStubIDGenerator(), testutil.SeedPassword)

		doc, err := st.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		doc.Users[0].Nom = "MUTATED"

		got, err := st.Load()
		if err != nil {
			t.Fatalf("second Load() error = %v", err)
		}
		if got.Users[0].Nom == "MUTATED" {
			t.Error("mutating a loaded document leaked into the store")
		}
	})

	t.Run("save stamps metadata", func(t *testing.T) {
		clock := testutil.FixedClock()
		st := store.NewMemoryStore(clock, testutil.NewStubIDGenerator(), testutil.SeedPassword)

		doc := tm.NewDocument(clock.Now())
		clock.Advance(time.Minute)
		if err := st.Save(doc); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if !doc.Metadata.LastUpdated.Equal(clock.Now().UTC()) {
			t.Errorf("LastUpdated = %v, want %v", doc.Metadata.LastUpdated, clock.Now().UTC())
		}
	})

	t.Run("SetDocument bypasses stamping", func(t *testing.T) {
		clock := testutil.FixedClock()
		st := store.NewMemoryStore(clock, testutil.NewStubIDGenerator(), testutil.SeedPassword)

		doc, err := st.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := clock.Now().Add(time.Hour)
		doc.Metadata.LastUpdated = want
		st.SetDocument(doc)

		got, err := st.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !got.Metadata.LastUpdated.Equal(want) {
			t.Errorf("LastUpdated = %v, want %v", got.Metadata.LastUpdated, want)
		}
	})
}
