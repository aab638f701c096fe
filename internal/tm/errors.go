package tm

import "errors"

// Expected failure modes are sentinel errors so callers (CLI, dashboards) can
// branch on them with errors.Is and map them to user-facing text. Anything not
// listed here is an unexpected storage or encoding failure.
var (
	// ErrNotFound reports an unknown user, message, notification,
	// assignment or relation id.
	ErrNotFound = errors.New("record not found")

	// ErrEmailExists reports a duplicate email on user creation or update.
	// The match is case-sensitive and exact.
	ErrEmailExists = errors.New("a user with this email already exists")

	// ErrWrongRole reports a user that exists but does not have the role an
	// operation requires (e.g. approving an assignment whose tutor id now
	// resolves to a parent).
	ErrWrongRole = errors.New("user does not have the required role")

	// ErrPermissionDenied reports a messaging attempt outside the allowed
	// sender/recipient pairings.
	ErrPermissionDenied = errors.New("sender is not allowed to message this recipient")

	// ErrCommuneMismatch reports a proposed pairing whose learner commune
	// and tutor intervention commune differ. The commune match is a hard
	// invariant regardless of compatibility score.
	ErrCommuneMismatch = errors.New("learner commune does not match tutor intervention commune")

	// ErrAssignmentExists reports that a pending assignment already exists
	// for the pair.
	ErrAssignmentExists = errors.New("a pending assignment already exists for this pair")

	// ErrRelationExists reports that an ACTIVE relation already exists for
	// the pair.
	ErrRelationExists = errors.New("an active relation already exists for this pair")

	// ErrInvalidDocument reports an import payload missing one of the
	// primary collections.
	ErrInvalidDocument = errors.New("document is missing a required collection")
)
