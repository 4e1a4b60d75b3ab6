package kernel

import (
	"strings"

	"fulfillment/internal/pkg/errs"
)

// OperatorID identifies a staff member. It is not authenticated here; the
// service only compares identities for equality.
type OperatorID string

// NoOperator is the absent identity of an unclaimed order.
const NoOperator OperatorID = ""

// NewOperatorID trims surrounding whitespace and rejects blank identities.
func NewOperatorID(raw string) (OperatorID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return NoOperator, errs.NewValueIsRequiredError("operator")
	}
	return OperatorID(id), nil
}

func (o OperatorID) IsZero() bool {
	return o == NoOperator
}

func (o OperatorID) String() string {
	return string(o)
}
