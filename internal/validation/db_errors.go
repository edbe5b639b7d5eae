package validation

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// DatabaseError is a constraint failure reported in terms of the request
type DatabaseError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (de *DatabaseError) Error() string {
	return de.Message
}

const (
	ErrorTypeUniqueViolation = "unique_violation"
	ErrorTypeCheckViolation  = "check_violation"
	ErrorTypeNotFound        = "not_found"
)

// ParseDatabaseError translates constraint violations raised by the
// repositories and report tables. Other errors are returned unchanged.
func ParseDatabaseError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		if strings.Contains(pgErr.ConstraintName, "report_entries") {
			return &DatabaseError{
				Type:    ErrorTypeUniqueViolation,
				Message: "An author appears twice in the same report",
				Field:   "email",
			}
		}
		return &DatabaseError{
			Type:    ErrorTypeUniqueViolation,
			Message: "A repository with this local name already exists",
			Field:   "local_name",
		}
	case "23514": // check_violation
		return &DatabaseError{
			Type:    ErrorTypeCheckViolation,
			Message: "Report entries must count at least one commit",
			Field:   "commit_count",
		}
	}
	return err
}
