package resolve

import "errors"

// Errors returned by Resolve. Check them with errors.Is:
//
//	if errors.Is(err, resolve.ErrNotFound) {
//	    // no usable Things database anywhere
//	}
var (
	// ErrNotFound is returned when no candidate passes validation.
	ErrNotFound = errors.New("things database not found")

	// ErrUnreadable is wrapped together with ErrNotFound when the only
	// candidate examined was a valid database the process may not read.
	ErrUnreadable = errors.New("things database is not readable")
)

// Rejection explains why a candidate file was not accepted.
type Rejection int

const (
	// Accepted means the candidate passed every check.
	Accepted Rejection = iota
	// RejectMissing means the path does not exist.
	RejectMissing
	// RejectNotFile means the path is a directory or special file.
	RejectNotFile
	// RejectExtension means the file name does not end in Extension.
	RejectExtension
	// RejectUnreadable means the process lacks read permission.
	RejectUnreadable
	// RejectHeader means the file does not start with Magic.
	RejectHeader
)

// String returns a human-readable representation of the rejection.
func (r Rejection) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectMissing:
		return "does not exist"
	case RejectNotFile:
		return "not a regular file"
	case RejectExtension:
		return "wrong extension"
	case RejectUnreadable:
		return "permission denied"
	case RejectHeader:
		return "not a SQLite database"
	default:
		return "unknown"
	}
}
