package tm

import (
	"fmt"
	"time"
)

// DocumentVersion is stamped into Metadata.Version on every save.
const DocumentVersion = "1.0"

// Metadata is the document's bookkeeping block. LastUpdated drives the
// newer-wins reconciliation across processes sharing the same store.
type Metadata struct {
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"lastUpdated"`
	Initialized bool      `json:"initialized"`
	LastSync    time.Time `json:"lastSync"`
}

// Document is the root aggregate: the five collections plus metadata. It is
// owned by the DocumentStore; services operate on an in-memory copy and route
// every mutation through the store's save path.
type Document struct {
	Users             []User             `json:"users"`
	Messages          []Message          `json:"messages"`
	Notifications     []Notification     `json:"notifications"`
	Assignments       []Assignment       `json:"assignments"`
	ApprovedRelations []ApprovedRelation `json:"approvedRelations"`
	Metadata          Metadata           `json:"metadata"`
}

// NewDocument returns an empty initialized document.
func NewDocument(now time.Time) *Document {
	return &Document{
		Users:             []User{},
		Messages:          []Message{},
		Notifications:     []Notification{},
		Assignments:       []Assignment{},
		ApprovedRelations: []ApprovedRelation{},
		Metadata: Metadata{
			Version:     DocumentVersion,
			LastUpdated: now.UTC(),
			Initialized: true,
			LastSync:    now.UTC(),
		},
	}
}

// Backfill injects empty collections into a document deserialized from an
// older or partial serialization, so the rest of the code never sees nil
// slices.
func (d *Document) Backfill() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Messages == nil {
		d.Messages = []Message{}
	}
	if d.Notifications == nil {
		d.Notifications = []Notification{}
	}
	if d.Assignments == nil {
		d.Assignments = []Assignment{}
	}
	if d.ApprovedRelations == nil {
		d.ApprovedRelations = []ApprovedRelation{}
	}
	if d.Metadata.Version == "" {
		d.Metadata.Version = DocumentVersion
	}
}

// Clone returns a deep copy of the document. Mutating operations work on a
// clone and commit it in a single save, so a failed multi-step operation
// never leaves a half-applied document behind.
func (d *Document) Clone() *Document {
	c := &Document{
		Users:             make([]User, len(d.Users)),
		Messages:          make([]Message, len(d.Messages)),
		Notifications:     make([]Notification, len(d.Notifications)),
		Assignments:       make([]Assignment, len(d.Assignments)),
		ApprovedRelations: make([]ApprovedRelation, len(d.ApprovedRelations)),
		Metadata:          d.Metadata,
	}
	for i := range d.Users {
		c.Users[i] = d.Users[i].Clone()
	}
	copy(c.Messages, d.Messages)
	for i := range d.Notifications {
		c.Notifications[i] = d.Notifications[i]
		if d.Notifications[i].Data != nil {
			data := *d.Notifications[i].Data
			c.Notifications[i].Data = &data
		}
	}
	copy(c.Assignments, d.Assignments)
	copy(c.ApprovedRelations, d.ApprovedRelations)
	return c
}

// UserByID returns a pointer into the document's user collection, or nil.
func (d *Document) UserByID(id string) *User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// UserByEmail returns a pointer into the document's user collection, or nil.
// The match is case-sensitive and exact.
func (d *Document) UserByEmail(email string) *User {
	for i := range d.Users {
		if d.Users[i].Email == email {
			return &d.Users[i]
		}
	}
	return nil
}

// SeedAdmin describes a fixed administrator account that must exist in every
// document.
type SeedAdmin struct {
	Email   string
	Nom     string
	Prenoms string
}

// SeedAdmins are guaranteed present on every load, matched by email. They are
// re-added if missing so administrator access survives a prior mass deletion.
var SeedAdmins = []SeedAdmin{
	{Email: "ekbessan@gmail.com", Nom: "EKBESSAN", Prenoms: "Ezekiel"},
	{Email: "superapprenant25@gmail.com", Nom: "ADMIN", Prenoms: "Super"},
}

// EnsureSeedAdmins adds any missing seed administrator to doc, hashing
// password for the new accounts. It reports whether doc was modified.
func EnsureSeedAdmins(doc *Document, now time.Time, idgen IDGenerator, password string) (bool, error) {
	added := false
	for _, seed := range SeedAdmins {
		if doc.UserByEmail(seed.Email) != nil {
			continue
		}
		admin := User{
			ID:        idgen.New(),
			Role:      RoleAdministrateur,
			Email:     seed.Email,
			Username:  seed.Email,
			Nom:       seed.Nom,
			Prenoms:   seed.Prenoms,
			CreatedAt: now.UTC(),
			UpdatedAt: now.UTC(),
		}
		if err := admin.SetPassword(password); err != nil {
			return added, fmt.Errorf("hashing seed admin password: %w", err)
		}
		doc.Users = append(doc.Users, admin)
		added = true
	}
	return added, nil
}
