package tm

import (
	"fmt"
	"slices"
)

// NewUser carries the information needed to register a user.
type NewUser struct {
	Role      Role   `validate:"required,oneof=ADMINISTRATEUR ENCADREUR PARENT_ELEVE"`
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=6"`
	Nom       string `validate:"required"`
	Prenoms   string `validate:"required"`
	Telephone string

	// Tutor profile
	CommuneIntervention string
	Disciplines         []string
	NiveauxEnseignes    []string
	MaxEleves           int

	// Parent-learner profile
	CommuneApprenant string
	NiveauApprenant  string
	Besoins          []string
}

// UpdateUser defines what may be modified on an existing user. Nil fields are
// left untouched; the id and role are immutable.
type UpdateUser struct {
	Email     *string `validate:"omitempty,email"`
	Password  *string `validate:"omitempty,min=6"`
	Nom       *string
	Prenoms   *string
	Telephone *string

	CommuneIntervention *string
	Disciplines         *[]string
	NiveauxEnseignes    *[]string
	MaxEleves           *int

	CommuneApprenant *string
	NiveauApprenant  *string
	Besoins          *[]string
}

// CreateUser registers a user. The email must be unique (case-sensitive
// exact match) and doubles as the username.
func (s *Service) CreateUser(in NewUser) (User, error) {
	if err := validateInput(in); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	if s.doc.UserByEmail(in.Email) != nil {
		return User{}, ErrEmailExists
	}

	now := s.clock.Now().UTC()
	usr := User{
		ID:        s.idgen.New(),
		Role:      in.Role,
		Email:     in.Email,
		Username:  in.Email,
		Nom:       in.Nom,
		Prenoms:   in.Prenoms,
		Telephone: in.Telephone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch in.Role {
	case RoleEncadreur:
		usr.CommuneIntervention = in.CommuneIntervention
		usr.Disciplines = slices.Clone(in.Disciplines)
		usr.NiveauxEnseignes = slices.Clone(in.NiveauxEnseignes)
		usr.MaxEleves = in.MaxEleves
		usr.AssignedStudents = []string{}
	case RoleParentEleve:
		usr.CommuneApprenant = in.CommuneApprenant
		usr.NiveauApprenant = in.NiveauApprenant
		usr.Besoins = slices.Clone(in.Besoins)
	}
	if err := usr.SetPassword(in.Password); err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	err := s.commitLocked(func(doc *Document) error {
		doc.Users = append(doc.Users, usr)
		return nil
	})
	if err != nil {
		return User{}, err
	}

	s.record("user.create", "", usr.ID, string(usr.Role)+" "+usr.Email)
	s.logger.Info("user created", "id", usr.ID, "role", usr.Role)
	return usr.Clone(), nil
}

// Users returns defensive copies of every user record.
func (s *Service) Users() ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	out := make([]User, len(s.doc.Users))
	for i := range s.doc.Users {
		out[i] = s.doc.Users[i].Clone()
	}
	return out, nil
}

// UserByID returns a defensive copy of the user with the given id.
func (s *Service) UserByID(id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	usr := s.doc.UserByID(id)
	if usr == nil {
		return User{}, ErrNotFound
	}
	return usr.Clone(), nil
}

// UserByEmail returns a defensive copy of the user with the given email.
func (s *Service) UserByEmail(email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	usr := s.doc.UserByEmail(email)
	if usr == nil {
		return User{}, ErrNotFound
	}
	return usr.Clone(), nil
}

// UpdateUser merges the provided fields over the existing record and stamps
// the update time. Changing the email re-checks uniqueness and renames the
// derived username.
func (s *Service) UpdateUser(id string, up UpdateUser) (User, error) {
	if err := validateInput(up); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	if s.doc.UserByID(id) == nil {
		return User{}, ErrNotFound
	}
	if up.Email != nil {
		if other := s.doc.UserByEmail(*up.Email); other != nil && other.ID != id {
			return User{}, ErrEmailExists
		}
	}

	var updated User
	err := s.commitLocked(func(doc *Document) error {
		usr := doc.UserByID(id)
		if up.Email != nil {
			usr.Email = *up.Email
			usr.Username = *up.Email
		}
		if up.Password != nil {
			if err := usr.SetPassword(*up.Password); err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
		}
		if up.Nom != nil {
			usr.Nom = *up.Nom
		}
		if up.Prenoms != nil {
			usr.Prenoms = *up.Prenoms
		}
		if up.Telephone != nil {
			usr.Telephone = *up.Telephone
		}
		if up.CommuneIntervention != nil {
			usr.CommuneIntervention = *up.CommuneIntervention
		}
		if up.Disciplines != nil {
			usr.Disciplines = slices.Clone(*up.Disciplines)
		}
		if up.NiveauxEnseignes != nil {
			usr.NiveauxEnseignes = slices.Clone(*up.NiveauxEnseignes)
		}
		if up.MaxEleves != nil {
			usr.MaxEleves = *up.MaxEleves
		}
		if up.CommuneApprenant != nil {
			usr.CommuneApprenant = *up.CommuneApprenant
		}
		if up.NiveauApprenant != nil {
			usr.NiveauApprenant = *up.NiveauApprenant
		}
		if up.Besoins != nil {
			usr.Besoins = slices.Clone(*up.Besoins)
		}
		usr.UpdatedAt = s.clock.Now().UTC()
		updated = usr.Clone()
		return nil
	})
	if err != nil {
		return User{}, err
	}

	s.record("user.update", "", id, "")
	return updated, nil
}

// DeleteUser removes the user and cascades cleanup: messages and
// notifications naming the user are deleted, pending assignments naming the
// user (as either party or proposer) are deleted, active relations naming
// the user are dissociated, and the id is stripped from every other user's
// cross-references.
func (s *Service) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	usr := s.doc.UserByID(id)
	if usr == nil {
		return ErrNotFound
	}
	email := usr.Email

	err := s.commitLocked(func(doc *Document) error {
		users := doc.Users[:0]
		for _, u := range doc.Users {
			if u.ID != id {
				users = append(users, u)
			}
		}
		doc.Users = users

		msgs := doc.Messages[:0]
		for _, m := range doc.Messages {
			if m.FromID != id && m.ToID != id {
				msgs = append(msgs, m)
			}
		}
		doc.Messages = msgs

		notifs := doc.Notifications[:0]
		for _, n := range doc.Notifications {
			if n.UserID != id {
				notifs = append(notifs, n)
			}
		}
		doc.Notifications = notifs

		assigns := doc.Assignments[:0]
		for _, a := range doc.Assignments {
			if a.ParentEleveID != id && a.EncadreurID != id && a.ProposedBy != id {
				assigns = append(assigns, a)
			}
		}
		doc.Assignments = assigns

		for i := range doc.ApprovedRelations {
			rel := &doc.ApprovedRelations[i]
			if rel.Status == RelationActive && (rel.ParentEleveID == id || rel.EncadreurID == id) {
				rel.Status = RelationDissociated
			}
		}

		for i := range doc.Users {
			u := &doc.Users[i]
			if u.AssignedEncadreur == id {
				u.AssignedEncadreur = ""
			}
			if len(u.AssignedStudents) > 0 {
				students := u.AssignedStudents[:0]
				for _, sid := range u.AssignedStudents {
					if sid != id {
						students = append(students, sid)
					}
				}
				u.AssignedStudents = students
			}
		}

		// Bulk mutation: prune anything the cascade missed.
		ValidateDocument(doc)
		return nil
	})
	if err != nil {
		return err
	}

	s.record("user.delete", "", id, email)
	s.logger.Info("user deleted", "id", id)
	return nil
}
