package guard_test

import (
	"errors"
	"testing"

	"fulfillment/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
)

var errOrderNotConstructed = errors.New("Order must be created via NewOrder constructor")

type claim struct {
	orderID string
	guard   guard.ConstructorGuard
}

func newClaim(orderID string) claim {
	return claim{orderID: orderID, guard: guard.NewConstructorGuard()}
}

func (c claim) Validate() error {
	return c.guard.Validate(errOrderNotConstructed)
}

func TestConstructorGuard_Validate(t *testing.T) {
	tests := []struct {
		name     string
		guard    guard.ConstructorGuard
		supplied error
		want     error
	}{
		{"constructed with custom error", guard.NewConstructorGuard(), errOrderNotConstructed, nil},
		{"constructed without error", guard.NewConstructorGuard(), nil, nil},
		{"zero value returns the supplied error", guard.ConstructorGuard{}, errOrderNotConstructed, errOrderNotConstructed},
		{"zero value falls back to the default error", guard.ConstructorGuard{}, nil, guard.ErrDefaultConstructorGuard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.guard.Validate(tt.supplied)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConstructorGuard_Embedded(t *testing.T) {
	assert.NoError(t, newClaim("PED-001").Validate())
	assert.ErrorIs(t, claim{orderID: "PED-001"}.Validate(), errOrderNotConstructed)

	copied := newClaim("PED-002")
	assert.NoError(t, copied.Validate(), "copies keep the constructed mark")
}
