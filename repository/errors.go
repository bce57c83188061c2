package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound: the referenced document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable: the store could not be reached or timed out. Always
	// a retryable server-side failure, never a client error.
	ErrUnavailable = errors.New("store unavailable")
)

// DuplicateError reports a uniqueness violation with the offending field
// named, so register can tell a taken username from a reused email.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// DuplicateField returns the conflicting field name if err is a
// uniqueness violation.
func DuplicateField(err error) (string, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Field, true
	}
	return "", false
}

// uniqueFields are the indexed fields a duplicate-key error can name.
var uniqueFields = []string{"subjectId", "username", "email"}

// classify maps a driver error into the taxonomy above. Every error
// leaving a repository passes through here.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return &DuplicateError{Field: duplicateField(err)}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}

// duplicateField digs the violated index name out of the driver error.
// Index names follow the driver's "<field>_1" convention.
func duplicateField(err error) string {
	msg := err.Error()
	for _, f := range uniqueFields {
		if strings.Contains(msg, f+"_1") {
			return f
		}
	}
	return "unknown"
}
