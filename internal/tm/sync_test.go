package tm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tm-go/internal/testutil"
	"tm-go/internal/tm"
)

func TestSyncer_Run(t *testing.T) {
	t.Run("a kick reconciles immediately", func(t *testing.T) {
		svc, st, clock := testutil.NewTestService(t)

		// A long interval keeps the ticker out of the picture.
		syncer := tm.NewSyncer(svc, time.Hour, tm.NewNopLogger())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- syncer.Run(ctx) }()

		events, unsubscribe := svc.Subscribe()
		defer unsubscribe()

		external := svc.Document()
		external.Users = append(external.Users, tm.User{
			ID:    "ext-1",
			Role:  tm.RoleParentEleve,
			Email: "ext@example.com",
		})
		external.Metadata.LastUpdated = clock.Now().Add(time.Minute)
		st.SetDocument(external)

		syncer.Kick()

		select {
		case ev := <-events:
			if ev.Document.UserByID("ext-1") == nil {
				t.Error("adopted document misses the external user")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no reconciliation event after kick")
		}

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Run() error = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run() did not stop on cancel")
		}
	})

	t.Run("the ticker reconciles periodically", func(t *testing.T) {
		svc, st, clock := testutil.NewTestService(t)

		syncer := tm.NewSyncer(svc, 10*time.Millisecond, tm.NewNopLogger())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go syncer.Run(ctx)

		events, unsubscribe := svc.Subscribe()
		defer unsubscribe()

		external := svc.Document()
		external.Users = append(external.Users, tm.User{
			ID:    "ext-2",
			Role:  tm.RoleParentEleve,
			Email: "ext2@example.com",
		})
		external.Metadata.LastUpdated = clock.Now().Add(time.Minute)
		st.SetDocument(external)

		select {
		case <-events:
		case <-time.After(2 * time.Second):
			t.Fatal("no reconciliation event from the ticker")
		}
	})

	t.Run("a non-positive interval falls back to the default", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)
		// Construction must not panic on a zero interval.
		tm.NewSyncer(svc, 0, tm.NewNopLogger())
	})
}

func TestSyncer_Kick(t *testing.T) {
	t.Run("never blocks", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)
		syncer := tm.NewSyncer(svc, time.Hour, tm.NewNopLogger())

		// No Run loop is draining; repeated kicks must coalesce.
		for i := 0; i < 10; i++ {
			syncer.Kick()
		}
	})
}
