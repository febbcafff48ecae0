package core

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable marks a threat store that is unreachable or whose data
// is corrupt. Lookups failing with this error are reported as "skipped",
// which the Rules Engine keeps distinct from "not matched".
var ErrStoreUnavailable = errors.New("threat store unavailable")

// ErrCollaboratorTimeout marks an external collaborator (classifier or
// translator) that did not answer within its deadline. It is handled locally
// by switching to degraded mode and never propagates as a pipeline failure.
var ErrCollaboratorTimeout = errors.New("collaborator timed out")

// MalformedMessageError reports a ParsedMessage whose header mapping cannot
// be interpreted, or which carries none of the required headers. Analysis
// aborts and no report body is produced.
type MalformedMessageError struct {
	Reason string
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed message: %s", e.Reason)
}

// IsMalformed reports whether err is a MalformedMessageError.
func IsMalformed(err error) bool {
	var m *MalformedMessageError
	return errors.As(err, &m)
}
