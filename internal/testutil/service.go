package testutil

import (
	"testing"

	"tm-go/internal/audit"
	"tm-go/internal/store"
	"tm-go/internal/tm"
)

// SeedPassword is the administrator password used by test fixtures.
const SeedPassword = "test-password"

// NewTestService builds a service on an in-memory store with a stub clock, a
// sequential id generator and an in-memory audit log. The returned store and
// clock allow tests to simulate external writes and the passage of time. The
// service is closed when the test completes.
func NewTestService(t *testing.T) (*tm.Service, *store.MemoryStore, *StubClock) {
	t.Helper()

	clock := FixedClock()
	idgen := NewStubIDGenerator()
	st := store.NewMemoryStore(clock, idgen, SeedPassword)

	svc, err := tm.NewService(st, audit.NewMemoryLog(), tm.NewNopLogger(), clock, idgen)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	t.Cleanup(func() {
		svc.Close()
	})
	return svc, st, clock
}

// CreateParent registers a parent-learner with the given email and learner
// commune.
func CreateParent(t *testing.T, svc *tm.Service, email, commune string) tm.User {
	t.Helper()

	usr, err := svc.CreateUser(tm.NewUser{
		Role:             tm.RoleParentEleve,
		Email:            email,
		Password:         "secret-1",
		Nom:              "Kouassi",
		Prenoms:          "Awa",
		CommuneApprenant: commune,
		NiveauApprenant:  "CM2",
		Besoins:          []string{"Mathématiques"},
	})
	if err != nil {
		t.Fatalf("failed to create parent %s: %v", email, err)
	}
	return usr
}

// CreateTutor registers a tutor intervening in the given commune.
func CreateTutor(t *testing.T, svc *tm.Service, email, commune string) tm.User {
	t.Helper()

	usr, err := svc.CreateUser(tm.NewUser{
		Role:                tm.RoleEncadreur,
		Email:               email,
		Password:            "secret-1",
		Nom:                 "Diabaté",
		Prenoms:             "Moussa",
		CommuneIntervention: commune,
		Disciplines:         []string{"Mathématiques", "Physique"},
		NiveauxEnseignes:    []string{"CM2", "6ème"},
		MaxEleves:           5,
	})
	if err != nil {
		t.Fatalf("failed to create tutor %s: %v", email, err)
	}
	return usr
}

// LinkPair proposes and approves a pairing, leaving parent and tutor with an
// active relation and live cross-references.
func LinkPair(t *testing.T, svc *tm.Service, parentID, tutorID, approverID string) {
	t.Helper()

	assign, err := svc.CreateAssignment(parentID, tutorID, 0.9, tm.MatchCriteria{
		CommuneMatch:    true,
		NiveauMatch:     true,
		DisciplineMatch: true,
	}, approverID)
	if err != nil {
		t.Fatalf("failed to propose assignment: %v", err)
	}
	if err := svc.ApproveAssignment(assign.ID, approverID); err != nil {
		t.Fatalf("failed to approve assignment: %v", err)
	}
}

// SeedAdmin returns one of the fixed administrator accounts from the
// service's document.
func SeedAdmin(t *testing.T, svc *tm.Service) tm.User {
	t.Helper()

	admin, err := svc.UserByEmail(tm.SeedAdmins[0].Email)
	if err != nil {
		t.Fatalf("failed to look up seed admin: %v", err)
	}
	return admin
}
