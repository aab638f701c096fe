package tm

import (
	"slices"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role discriminates the three user variants.
type Role string

const (
	RoleAdministrateur Role = "ADMINISTRATEUR"
	RoleEncadreur      Role = "ENCADREUR"
	RoleParentEleve    Role = "PARENT_ELEVE"
)

// User is a single struct covering all three variants. Variant-specific
// fields use a tagged union pattern - the Role field determines which other
// fields are relevant.
type User struct {
	ID           string    `json:"id"`
	Role         Role      `json:"role"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Nom          string    `json:"nom"`
	Prenoms      string    `json:"prenoms"`
	Telephone    string    `json:"telephone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Tutor fields (only used when Role == ENCADREUR)
	CommuneIntervention string   `json:"communeIntervention,omitempty"`
	Disciplines         []string `json:"disciplines,omitempty"`
	NiveauxEnseignes    []string `json:"niveauxEnseignes,omitempty"`
	MaxEleves           int      `json:"maxEleves,omitempty"`
	AssignedStudents    []string `json:"assignedStudents,omitempty"`

	// Parent-learner fields (only used when Role == PARENT_ELEVE)
	CommuneApprenant  string   `json:"communeApprenant,omitempty"`
	NiveauApprenant   string   `json:"niveauApprenant,omitempty"`
	Besoins           []string `json:"besoins,omitempty"`
	AssignedEncadreur string   `json:"assignedEncadreur,omitempty"`
}

func (u *User) IsAdmin() bool     { return u.Role == RoleAdministrateur }
func (u *User) IsEncadreur() bool { return u.Role == RoleEncadreur }
func (u *User) IsParent() bool    { return u.Role == RoleParentEleve }

// SetPassword hashes pwd with bcrypt and stores the hash. Cleartext is never
// retained on the record or in the persisted document.
func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether pwd matches the stored hash.
func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pwd))
}

// Clone returns a deep copy so callers can hand out records without aliasing
// the in-memory document.
func (u *User) Clone() User {
	c := *u
	c.Disciplines = slices.Clone(u.Disciplines)
	c.NiveauxEnseignes = slices.Clone(u.NiveauxEnseignes)
	c.AssignedStudents = slices.Clone(u.AssignedStudents)
	c.Besoins = slices.Clone(u.Besoins)
	return c
}

// Message is immutable once appended, except for the Read flag.
type Message struct {
	ID        string    `json:"id"`
	FromID    string    `json:"fromId"`
	ToID      string    `json:"toId"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message directions as seen from a given user's perspective.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// MessageView is a Message labeled with its direction relative to the user
// who requested it.
type MessageView struct {
	Message
	Direction string `json:"direction"`
}

// NotificationType tags a notification and determines the shape of its Data.
type NotificationType string

const (
	NotificationMatching   NotificationType = "MATCHING"
	NotificationAssignment NotificationType = "ASSIGNMENT"
	NotificationSystem     NotificationType = "SYSTEM"
	NotificationMessage    NotificationType = "MESSAGE"
)

// NotificationData is the structured payload of a notification. This uses a
// tagged union pattern - the notification's Type determines which fields are
// relevant:
//
//	MATCHING:   ParentEleveID, EncadreurID, Score
//	ASSIGNMENT: RelationID, ParentEleveID, EncadreurID, Score
//	MESSAGE:    MessageID
//	SYSTEM:     none
type NotificationData struct {
	AssignmentID  string  `json:"assignmentId,omitempty"`
	RelationID    string  `json:"relationId,omitempty"`
	MessageID     string  `json:"messageId,omitempty"`
	ParentEleveID string  `json:"parentEleveId,omitempty"`
	EncadreurID   string  `json:"encadreurId,omitempty"`
	Score         float64 `json:"score,omitempty"`
}

// Notification is a per-recipient event record.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"createdAt"`
	Data      *NotificationData `json:"data,omitempty"`
}

// NotificationView is a Notification optionally annotated with the owning
// user record. Owner is only populated for administrator reads.
type NotificationView struct {
	Notification
	Owner *User `json:"owner,omitempty"`
}

// MatchCriteria records which of the matching dimensions held when the pair
// was scored.
type MatchCriteria struct {
	CommuneMatch    bool `json:"communeMatch"`
	NiveauMatch     bool `json:"niveauMatch"`
	DisciplineMatch bool `json:"disciplineMatch"`
}

// Assignment is a pending proposed pairing. It only exists between proposal
// and the administrator's decision: approval converts it into an
// ApprovedRelation and deletes it.
type Assignment struct {
	ID            string        `json:"id"`
	ParentEleveID string        `json:"parentEleveId"`
	EncadreurID   string        `json:"encadreurId"`
	Score         float64       `json:"score"`
	Criteria      MatchCriteria `json:"criteria"`
	ProposedBy    string        `json:"proposedBy"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// RelationStatus is the lifecycle state of an ApprovedRelation.
type RelationStatus string

const (
	RelationActive      RelationStatus = "ACTIVE"
	RelationDissociated RelationStatus = "DISSOCIATED"
)

// ApprovedRelation is the durable record of an approved pairing. It is never
// physically deleted: dissociation flips Status to DISSOCIATED, preserving an
// audit trail distinct from the live cross-references on the user records.
type ApprovedRelation struct {
	ID            string         `json:"id"`
	ParentEleveID string         `json:"parentEleveId"`
	EncadreurID   string         `json:"encadreurId"`
	ApprovedAt    time.Time      `json:"approvedAt"`
	ApprovedBy    string         `json:"approvedBy"`
	Score         float64        `json:"score"`
	Criteria      MatchCriteria  `json:"criteria"`
	Status        RelationStatus `json:"status"`
}
