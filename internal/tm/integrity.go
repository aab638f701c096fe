package tm

// ValidateDocument prunes dangling references in place and reports whether
// anything was removed. It is idempotent and has no side effects beyond
// pruning. Rules run in a fixed order:
//
//  1. Drop any ApprovedRelation whose parent or tutor id no longer resolves
//     to an existing user.
//  2. Clear a parent-learner's assignedEncadreur when it does not resolve to
//     an existing tutor.
//  3. Filter a tutor's assignedStudents down to ids that resolve to existing
//     parent-learners.
//
// It runs after every document load and after bulk mutations (import, user
// deletion). It must never be called from inside a store's load path, which
// would recurse back into initialization.
func ValidateDocument(doc *Document) bool {
	roles := make(map[string]Role, len(doc.Users))
	for i := range doc.Users {
		roles[doc.Users[i].ID] = doc.Users[i].Role
	}

	changed := false

	kept := doc.ApprovedRelations[:0]
	for _, rel := range doc.ApprovedRelations {
		_, parentOK := roles[rel.ParentEleveID]
		_, tutorOK := roles[rel.EncadreurID]
		if parentOK && tutorOK {
			kept = append(kept, rel)
		} else {
			changed = true
		}
	}
	doc.ApprovedRelations = kept

	for i := range doc.Users {
		u := &doc.Users[i]
		switch u.Role {
		case RoleParentEleve:
			if u.AssignedEncadreur != "" && roles[u.AssignedEncadreur] != RoleEncadreur {
				u.AssignedEncadreur = ""
				changed = true
			}
		case RoleEncadreur:
			students := u.AssignedStudents[:0]
			for _, id := range u.AssignedStudents {
				if roles[id] == RoleParentEleve {
					students = append(students, id)
				} else {
					changed = true
				}
			}
			u.AssignedStudents = students
		}
	}

	return changed
}
