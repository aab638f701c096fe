package tm

import "slices"

// CanSend reports whether sender may message recipient:
//
//   - administrators may message anyone, and anyone may message an
//     administrator;
//   - a parent-learner may message a tutor only if that tutor is their
//     assigned tutor;
//   - a tutor may message a parent-learner only if that learner is in the
//     tutor's assigned students;
//   - every other combination is denied.
func (s *Service) CanSend(senderID, recipientID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return canSend(s.doc, senderID, recipientID)
}

func canSend(doc *Document, senderID, recipientID string) bool {
	sender := doc.UserByID(senderID)
	recipient := doc.UserByID(recipientID)
	if sender == nil || recipient == nil {
		return false
	}
	if sender.IsAdmin() || recipient.IsAdmin() {
		return true
	}
	if sender.IsParent() && recipient.IsEncadreur() {
		return sender.AssignedEncadreur == recipient.ID
	}
	if sender.IsEncadreur() && recipient.IsParent() {
		return slices.Contains(sender.AssignedStudents, recipient.ID)
	}
	return false
}

// SendMessage appends an unread message after evaluating the permission
// predicate, and notifies the recipient.
func (s *Service) SendMessage(fromID, toID, subject, content string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	if s.doc.UserByID(fromID) == nil || s.doc.UserByID(toID) == nil {
		return Message{}, ErrNotFound
	}
	if !canSend(s.doc, fromID, toID) {
		return Message{}, ErrPermissionDenied
	}

	now := s.clock.Now().UTC()
	msg := Message{
		ID:        s.idgen.New(),
		FromID:    fromID,
		ToID:      toID,
		Subject:   subject,
		Content:   content,
		Read:      false,
		CreatedAt: now,
	}
	notif := Notification{
		ID:        s.idgen.New(),
		UserID:    toID,
		Type:      NotificationMessage,
		Title:     "Nouveau message",
		Message:   subject,
		Read:      false,
		CreatedAt: now,
		Data:      &NotificationData{MessageID: msg.ID},
	}

	err := s.commitLocked(func(doc *Document) error {
		doc.Messages = append(doc.Messages, msg)
		doc.Notifications = append(doc.Notifications, notif)
		return nil
	})
	if err != nil {
		return Message{}, err
	}

	s.record("message.send", fromID, msg.ID, "to "+toID)
	return msg, nil
}

// Messages returns the messages visible to userID, each labeled sent or
// received from that user's perspective. Administrators see all traffic in
// the system; the direction label is still computed relative to the viewing
// administrator's own id, so traffic between third parties shows as
// "received". That relabeling is the historical audit-view behavior and is
// kept deliberately.
func (s *Service) Messages(userID string) ([]MessageView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	usr := s.doc.UserByID(userID)
	if usr == nil {
		return nil, ErrNotFound
	}

	views := []MessageView{}
	for _, m := range s.doc.Messages {
		if !usr.IsAdmin() && m.FromID != userID && m.ToID != userID {
			continue
		}
		direction := DirectionReceived
		if m.FromID == userID {
			direction = DirectionSent
		}
		views = append(views, MessageView{Message: m, Direction: direction})
	}
	return views, nil
}

// MarkMessageRead flips the read flag. Marking an already-read message is a
// no-op that does not touch storage.
func (s *Service) MarkMessageRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	found := false
	for i := range s.doc.Messages {
		if s.doc.Messages[i].ID == id {
			found = true
			if s.doc.Messages[i].Read {
				return nil
			}
		}
	}
	if !found {
		return ErrNotFound
	}

	return s.commitLocked(func(doc *Document) error {
		for i := range doc.Messages {
			if doc.Messages[i].ID == id {
				doc.Messages[i].Read = true
			}
		}
		return nil
	})
}
