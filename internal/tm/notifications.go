package tm

// Notify appends an unread notification for userID.
func (s *Service) Notify(userID string, typ NotificationType, title, message string, data *NotificationData) (Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	if s.doc.UserByID(userID) == nil {
		return Notification{}, ErrNotFound
	}

	notif := Notification{
		ID:        s.idgen.New(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Read:      false,
		CreatedAt: s.clock.Now().UTC(),
	}
	if data != nil {
		d := *data
		notif.Data = &d
	}

	err := s.commitLocked(func(doc *Document) error {
		doc.Notifications = append(doc.Notifications, notif)
		return nil
	})
	if err != nil {
		return Notification{}, err
	}
	return notif, nil
}

// Notifications returns the notifications visible to userID. Administrators
// see every notification system-wide, each annotated with the owning user
// record; everyone else sees only their own.
func (s *Service) Notifications(userID string) ([]NotificationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	usr := s.doc.UserByID(userID)
	if usr == nil {
		return nil, ErrNotFound
	}

	views := []NotificationView{}
	for _, n := range s.doc.Notifications {
		if usr.IsAdmin() {
			view := NotificationView{Notification: n}
			if owner := s.doc.UserByID(n.UserID); owner != nil {
				o := owner.Clone()
				view.Owner = &o
			}
			views = append(views, view)
			continue
		}
		if n.UserID == userID {
			views = append(views, NotificationView{Notification: n})
		}
	}
	return views, nil
}

// MarkNotificationRead flips the read flag. Marking an already-read
// notification is a no-op that does not touch storage.
func (s *Service) MarkNotificationRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	found := false
	for i := range s.doc.Notifications {
		if s.doc.Notifications[i].ID == id {
			found = true
			if s.doc.Notifications[i].Read {
				return nil
			}
		}
	}
	if !found {
		return ErrNotFound
	}

	return s.commitLocked(func(doc *Document) error {
		for i := range doc.Notifications {
			if doc.Notifications[i].ID == id {
				doc.Notifications[i].Read = true
			}
		}
		return nil
	})
}
