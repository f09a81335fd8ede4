package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data errors: the input table violates a precondition
	ErrData           = errors.New("data error")
	ErrColumnNotFound = fmt.Errorf("%w: column not found", ErrData)
	ErrNonNumeric     = fmt.Errorf("%w: non-numeric value where numeric expected", ErrData)
	ErrNotFactor      = fmt.Errorf("%w: factor column expected", ErrData)
	ErrLengthMismatch = fmt.Errorf("%w: column length mismatch", ErrData)
	ErrEmptyTable     = fmt.Errorf("%w: table has no rows", ErrData)

	// Estimation errors: the model cannot be fit as specified
	ErrCollinearity             = errors.New("design matrix has linearly dependent columns")
	ErrSingularity              = errors.New("residual degrees of freedom <= 0")
	ErrUndefinedStandardization = errors.New("zero-variance column cannot be standardized")
)

// Error constructors with context
func NewColumnError(cause error, column string) error {
	return fmt.Errorf("%w: column %q", cause, column)
}

func NewRowError(cause error, column string, row int) error {
	return fmt.Errorf("%w: column %q row %d", cause, column, row)
}

func NewCollinearityError(columns []string) error {
	return fmt.Errorf("%w: %v", ErrCollinearity, columns)
}

// Error checking helpers
func IsDataError(err error) bool {
	return errors.Is(err, ErrData)
}

func IsCollinearityError(err error) bool {
	return errors.Is(err, ErrCollinearity)
}

func IsSingularityError(err error) bool {
	return errors.Is(err, ErrSingularity)
}

func IsUndefinedStandardization(err error) bool {
	return errors.Is(err, ErrUndefinedStandardization)
}
