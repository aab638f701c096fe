package tm

import (
	"fmt"
	"slices"
)

func (d *Document) activeRelation(parentID, tutorID string) *ApprovedRelation {
	for i := range d.ApprovedRelations {
		rel := &d.ApprovedRelations[i]
		if rel.ParentEleveID == parentID && rel.EncadreurID == tutorID && rel.Status == RelationActive {
			return rel
		}
	}
	return nil
}

func (d *Document) pendingAssignment(parentID, tutorID string) *Assignment {
	for i := range d.Assignments {
		a := &d.Assignments[i]
		if a.ParentEleveID == parentID && a.EncadreurID == tutorID {
			return a
		}
	}
	return nil
}

func (d *Document) assignmentByID(id string) *Assignment {
	for i := range d.Assignments {
		if d.Assignments[i].ID == id {
			return &d.Assignments[i]
		}
	}
	return nil
}

// resolvePair returns the parent-learner and tutor records for a pairing,
// checking existence and roles.
func resolvePair(doc *Document, parentID, tutorID string) (*User, *User, error) {
	parent := doc.UserByID(parentID)
	tutor := doc.UserByID(tutorID)
	if parent == nil || tutor == nil {
		return nil, nil, ErrNotFound
	}
	if !parent.IsParent() || !tutor.IsEncadreur() {
		return nil, nil, ErrWrongRole
	}
	return parent, tutor, nil
}

// CreateAssignment appends a pending assignment for the pair. The pairing is
// rejected when an active relation or another pending assignment already
// exists for the pair, and when the learner's commune differs from the
// tutor's intervention commune — the commune match is a hard invariant no
// score can override.
func (s *Service) CreateAssignment(parentID, tutorID string, score float64, criteria MatchCriteria, proposerID string) (Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	parent, tutor, err := resolvePair(s.doc, parentID, tutorID)
	if err != nil {
		return Assignment{}, err
	}
	if s.doc.activeRelation(parentID, tutorID) != nil {
		return Assignment{}, ErrRelationExists
	}
	if s.doc.pendingAssignment(parentID, tutorID) != nil {
		return Assignment{}, ErrAssignmentExists
	}
	if parent.CommuneApprenant != tutor.CommuneIntervention {
		return Assignment{}, ErrCommuneMismatch
	}

	assign := Assignment{
		ID:            s.idgen.New(),
		ParentEleveID: parentID,
		EncadreurID:   tutorID,
		Score:         score,
		Criteria:      criteria,
		ProposedBy:    proposerID,
		CreatedAt:     s.clock.Now().UTC(),
	}

	err = s.commitLocked(func(doc *Document) error {
		doc.Assignments = append(doc.Assignments, assign)
		return nil
	})
	if err != nil {
		return Assignment{}, err
	}

	s.record("assignment.create", proposerID, assign.ID,
		fmt.Sprintf("parent %s, tutor %s, score %.2f", parentID, tutorID, score))
	s.logger.Info("assignment proposed", "id", assign.ID, "parent", parentID, "tutor", tutorID)
	return assign, nil
}

// ApproveAssignment promotes a pending assignment to an ACTIVE relation,
// sets the cross-references on both user records, deletes the consumed
// assignment and notifies both parties. Users and the commune invariant are
// re-validated here: state may have changed since the proposal.
//
// All of it commits as one document save, so a failure leaves no
// half-applied cross-references behind.
func (s *Service) ApproveAssignment(assignmentID, approverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	assign := s.doc.assignmentByID(assignmentID)
	if assign == nil {
		return ErrNotFound
	}
	parent, tutor, err := resolvePair(s.doc, assign.ParentEleveID, assign.EncadreurID)
	if err != nil {
		return err
	}
	if parent.CommuneApprenant != tutor.CommuneIntervention {
		return ErrCommuneMismatch
	}

	now := s.clock.Now().UTC()
	rel := ApprovedRelation{
		ID:            s.idgen.New(),
		ParentEleveID: assign.ParentEleveID,
		EncadreurID:   assign.EncadreurID,
		ApprovedAt:    now,
		ApprovedBy:    approverID,
		Score:         assign.Score,
		Criteria:      assign.Criteria,
		Status:        RelationActive,
	}

	err = s.commitLocked(func(doc *Document) error {
		doc.ApprovedRelations = append(doc.ApprovedRelations, rel)

		p := doc.UserByID(rel.ParentEleveID)
		t := doc.UserByID(rel.EncadreurID)
		p.AssignedEncadreur = rel.EncadreurID
		if !slices.Contains(t.AssignedStudents, rel.ParentEleveID) {
			t.AssignedStudents = append(t.AssignedStudents, rel.ParentEleveID)
		}

		assigns := doc.Assignments[:0]
		for _, a := range doc.Assignments {
			if a.ID != assignmentID {
				assigns = append(assigns, a)
			}
		}
		doc.Assignments = assigns

		data := &NotificationData{
			RelationID:    rel.ID,
			ParentEleveID: rel.ParentEleveID,
			EncadreurID:   rel.EncadreurID,
			Score:         rel.Score,
		}
		doc.Notifications = append(doc.Notifications,
			Notification{
				ID:        s.idgen.New(),
				UserID:    rel.ParentEleveID,
				Type:      NotificationAssignment,
				Title:     "Encadreur attribué",
				Message:   fmt.Sprintf("%s %s est maintenant votre encadreur", t.Prenoms, t.Nom),
				CreatedAt: now,
				Data:      data,
			},
			Notification{
				ID:        s.idgen.New(),
				UserID:    rel.EncadreurID,
				Type:      NotificationAssignment,
				Title:     "Nouvel apprenant",
				Message:   fmt.Sprintf("%s %s vous a été attribué", p.Prenoms, p.Nom),
				CreatedAt: now,
				Data:      data,
			},
		)
		return nil
	})
	if err != nil {
		return err
	}

	s.record("assignment.approve", approverID, rel.ID,
		fmt.Sprintf("parent %s, tutor %s", rel.ParentEleveID, rel.EncadreurID))
	s.logger.Info("assignment approved", "relation", rel.ID)
	return nil
}

// DissociateRelation flips the pair's ACTIVE relation to DISSOCIATED (the
// record is kept), removes any stray pending assignment for the pair and
// clears the cross-references on whichever user records still exist. It is
// deliberately tolerant of missing users so cleanup still works after one
// side was deleted.
func (s *Service) DissociateRelation(parentID, tutorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	if s.doc.UserByID(parentID) == nil {
		s.logger.Warn("dissociating relation for missing parent", "parent", parentID)
	}
	if s.doc.UserByID(tutorID) == nil {
		s.logger.Warn("dissociating relation for missing tutor", "tutor", tutorID)
	}

	now := s.clock.Now().UTC()
	err := s.commitLocked(func(doc *Document) error {
		if rel := doc.activeRelation(parentID, tutorID); rel != nil {
			rel.Status = RelationDissociated
		}

		assigns := doc.Assignments[:0]
		for _, a := range doc.Assignments {
			if a.ParentEleveID != parentID || a.EncadreurID != tutorID {
				assigns = append(assigns, a)
			}
		}
		doc.Assignments = assigns

		data := &NotificationData{ParentEleveID: parentID, EncadreurID: tutorID}
		if p := doc.UserByID(parentID); p != nil {
			if p.AssignedEncadreur == tutorID {
				p.AssignedEncadreur = ""
			}
			doc.Notifications = append(doc.Notifications, Notification{
				ID:        s.idgen.New(),
				UserID:    parentID,
				Type:      NotificationAssignment,
				Title:     "Encadrement terminé",
				Message:   "Votre relation d'encadrement a été dissociée",
				CreatedAt: now,
				Data:      data,
			})
		}
		if t := doc.UserByID(tutorID); t != nil {
			students := t.AssignedStudents[:0]
			for _, sid := range t.AssignedStudents {
				if sid != parentID {
					students = append(students, sid)
				}
			}
			t.AssignedStudents = students
			doc.Notifications = append(doc.Notifications, Notification{
				ID:        s.idgen.New(),
				UserID:    tutorID,
				Type:      NotificationAssignment,
				Title:     "Encadrement terminé",
				Message:   "Une relation d'encadrement a été dissociée",
				CreatedAt: now,
				Data:      data,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.record("relation.dissociate", "", "", fmt.Sprintf("parent %s, tutor %s", parentID, tutorID))
	s.logger.Info("relation dissociated", "parent", parentID, "tutor", tutorID)
	return nil
}

// DeleteAssignment removes a pending assignment without any side effects.
func (s *Service) DeleteAssignment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	if s.doc.assignmentByID(id) == nil {
		return ErrNotFound
	}

	err := s.commitLocked(func(doc *Document) error {
		assigns := doc.Assignments[:0]
		for _, a := range doc.Assignments {
			if a.ID != id {
				assigns = append(assigns, a)
			}
		}
		doc.Assignments = assigns
		return nil
	})
	if err != nil {
		return err
	}

	s.record("assignment.delete", "", id, "")
	return nil
}

// Assignments returns all pending assignments.
func (s *Service) Assignments() ([]Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()
	return slices.Clone(s.doc.Assignments), nil
}

// Relations returns all approved relations, active and dissociated.
func (s *Service) Relations() ([]ApprovedRelation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()
	return slices.Clone(s.doc.ApprovedRelations), nil
}
