package tm_test

import (
	"errors"
	"testing"
	"time"

	"tm-go/internal/testutil"
	"tm-go/internal/tm"
)

func TestService_CreateUser(t *testing.T) {
	t.Run("registers a parent-learner", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)

		usr, err := svc.CreateUser(tm.NewUser{
			Role:             tm.RoleParentEleve,
			Email:            "parent@example.com",
			Password:         "secret-1",
			Nom:              "Kouassi",
			Prenoms:          "Awa",
			CommuneApprenant: "Cocody",
			NiveauApprenant:  "CM2",
			Besoins:          []string{"Mathématiques"},
		})
		if err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}

		if usr.ID == "" {
			t.Error("ID is empty")
		}
		if usr.Username != "parent@example.com" {
			t.Errorf("Username = %q, want the email", usr.Username)
		}
		if usr.CommuneApprenant != "Cocody" {
			t.Errorf("CommuneApprenant = %q, want %q", usr.CommuneApprenant, "Cocody")
		}
		if usr.CreatedAt.IsZero() || !usr.CreatedAt.Equal(usr.UpdatedAt) {
			t.Errorf("timestamps: CreatedAt = %v, UpdatedAt = %v", usr.CreatedAt, usr.UpdatedAt)
		}
	})

	t.Run("never stores the cleartext password", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)

		usr := testutil.CreateParent(t, svc, "parent@example.com", "Cocody")
		if usr.PasswordHash == "secret-1" {
			t.Fatal("password stored in cleartext")
		}
		if err := usr.CheckPassword("secret-1"); err != nil {
			t.Errorf("CheckPassword() error = %v", err)
		}
		if err := usr.CheckPassword("wrong"); err == nil {
			t.Error("CheckPassword() accepted a wrong password")
		}
	})

	t.Run("initializes tutor cross-references", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)

		usr := testutil.CreateTutor(t, svc, "tutor@example.com", "Cocody")
		if usr.AssignedStudents == nil {
			t.Error("AssignedStudents is nil, want empty slice")
		}
		if len(usr.AssignedStudents) != 0 {
			t.Errorf("len(AssignedStudents) = %d, want 0", len(usr.AssignedStudents))
		}
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)

		testutil.CreateParent(t, svc, "dup@example.com", "Cocody")
		_, err := svc.CreateUser(tm.NewUser{
			Role:     tm.RoleEncadreur,
			Email:    "dup@example.com",
			Password: "secret-1",
			Nom:      "Diabaté",
			Prenoms:  "Moussa",
		})
		if !errors.Is(err, tm.ErrEmailExists) {
			t.Errorf("CreateUser() error = %v, want ErrEmailExists", err)
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)

		cases := []struct {
			name string
			in   tm.NewUser
		}{
			{"bad role", tm.NewUser{Role: "ELEVE", Email: "a@b.com", Password: "secret-1", Nom: "N", Prenoms: "P"}},
			{"bad email", tm.NewUser{Role: tm.RoleParentEleve, Email: "not-an-email", Password: "secret-1", Nom: "N", Prenoms: "P"}},
			{"short password", tm.NewUser{Role: tm.RoleParentEleve, Email: "a@b.com", Password: "abc", Nom: "N", Prenoms: "P"}},
			{"missing name", tm.NewUser{Role: tm.RoleParentEleve, Email: "a@b.com", Password: "secret-1"}},
		}
		for _, tc := range cases {
			if _, err := svc.CreateUser(tc.in); err == nil {
				t.Errorf("%s: CreateUser() expected error", tc.name)
			}
		}
	})
}

func TestService_UpdateUser(t *testing.T) {
	str := func(s string) *string { return &s }

	t.Run("merges only the provided fields", func(t *testing.T) {
		svc, _, clock := testutil.NewTestService(t)

		usr := testutil.CreateParent(t, svc, "parent@example.com", "Cocody")
		clock.Advance(time.Second)

		got, err := svc.UpdateUser(usr.ID, tm.UpdateUser{
			Telephone:        str("0102030405"),
			CommuneApprenant: str("Marcory"),
		})
		if err != nil {
			t.Fatalf("UpdateUser() error = %v", err)
		}

		if got.Telephone != "0102030405" {
			t.Errorf("Telephone = %q, want %q", got.Telephone, "0102030405")
		}
		if got.CommuneApprenant != "Marcory" {
			t.Errorf("CommuneApprenant = %q, want %q", got.CommuneApprenant, "Marcory")
		}
		if got.Nom != usr.Nom {
			t.Errorf("Nom = %q, changed unexpectedly", got.Nom)
		}
		if !got.UpdatedAt.After(usr.UpdatedAt) {
			t.Errorf("UpdatedAt = %v, want after %v", got.UpdatedAt, usr.UpdatedAt)
		}
	})

	t.Run("renames the username with the email", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)

		usr := testutil.CreateParent(t, svc, "old@example.com", "Cocody")
		got, err := svc.UpdateUser(usr.ID, tm.UpdateUser{Email: str("new@example.com")})
		if err != nil {
			t.Fatalf("UpdateUser() error = %v", err)
		}
		if got.Username != "new@example.com" {
			t.Errorf("Username = %q, want %q", got.Username, "new@example.com")
		}
	})

	t.Run("rejects an email owned by another user", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)

		testutil.CreateParent(t, svc, "taken@example.com", "Cocody")
		usr := testutil.CreateParent(t, svc, "mine@example.com", "Cocody")

		_, err := svc.UpdateUser(usr.ID, tm.UpdateUser{Email: str("taken@example.com")})
		if !errors.Is(err, tm.ErrEmailExists) {
			t.Errorf("UpdateUser() error = %v, want ErrEmailExists", err)
		}
	})

	t.Run("returns ErrNotFound for an unknown id", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)

		_, err := svc.UpdateUser("nope", tm.UpdateUser{Nom: str("X")})
		if !errors.Is(err, tm.ErrNotFound) {
			t.Errorf("UpdateUser() error = %v, want ErrNotFound", err)
		}
	})
}

func TestService_DeleteUser(t *testing.T) {
	t.Run("cascades over every collection", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)
		admin := testutil.SeedAdmin(t, svc)

		parent := testutil.CreateParent(t, svc, "parent@example.com", "Cocody")
		tutor := testutil.CreateTutor(t, svc, "tutor@example.com", "Cocody")
		testutil.LinkPair(t, svc, parent.ID, tutor.ID, admin.ID)

		if _, err := svc.SendMessage(parent.ID, tutor.ID, "Bonjour", "Premier message"); err != nil {
			t.Fatalf("SendMessage() error = %v", err)
		}

		if err := svc.DeleteUser(parent.ID); err != nil {
			t.Fatalf("DeleteUser() error = %v", err)
		}

		if _, err := svc.UserByID(parent.ID); !errors.Is(err, tm.ErrNotFound) {
			t.Errorf("UserByID() error = %v, want ErrNotFound", err)
		}

		msgs, err := svc.Messages(tutor.ID)
		if err != nil {
			t.Fatalf("Messages() error = %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("len(Messages) = %d, want 0", len(msgs))
		}

		notifs, err := svc.Notifications(tutor.ID)
		if err != nil {
			t.Fatalf("Notifications() error = %v", err)
		}
		for _, n := range notifs {
			if n.UserID == parent.ID {
				t.Errorf("notification %s still owned by deleted user", n.ID)
			}
		}

		rels, err := svc.Relations()
		if err != nil {
			t.Fatalf("Relations() error = %v", err)
		}
		if len(rels) != 1 {
			t.Fatalf("len(Relations) = %d, want 1", len(rels))
		}
		if rels[0].Status != tm.RelationDissociated {
			t.Errorf("relation status = %q, want DISSOCIATED", rels[0].Status)
		}

		gotTutor, err := svc.UserByID(tutor.ID)
		if err != nil {
			t.Fatalf("UserByID() error = %v", err)
		}
		if len(gotTutor.AssignedStudents) != 0 {
			t.Errorf("AssignedStudents = %v, want empty", gotTutor.AssignedStudents)
		}
	})

	t.Run("removes pending assignments naming the user", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)
		admin := testutil.SeedAdmin(t, svc)

		parent := testutil.CreateParent(t, svc, "parent@example.com", "Cocody")
		tutor := testutil.CreateTutor(t, svc, "tutor@example.com", "Cocody")
		if _, err := svc.CreateAssignment(parent.ID, tutor.ID, 0.7, tm.MatchCriteria{CommuneMatch: true}, admin.ID); err != nil {
			t.Fatalf("CreateAssignment() error = %v", err)
		}

		if err := svc.DeleteUser(tutor.ID); err != nil {
			t.Fatalf("DeleteUser() error = %v", err)
		}

		assigns, err := svc.Assignments()
		if err != nil {
			t.Fatalf("Assignments() error = %v", err)
		}
		if len(assigns) != 0 {
			t.Errorf("len(Assignments) = %d, want 0", len(assigns))
		}
	})

	t.Run("returns ErrNotFound for an unknown id", func(t *testing.T) {
		svc, _, _ := testutil.NewTestService(t)

		if err := svc.DeleteUser("nope"); !errors.Is(err, tm.ErrNotFound) {
			t.Errorf("DeleteUser() error = %v, want ErrNotFound", err)
		}
	})
}
