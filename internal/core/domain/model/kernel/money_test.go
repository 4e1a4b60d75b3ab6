package kernel_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "integer amount", input: "650", want: "650.00"},
		{name: "cents", input: "299.90", want: "299.90"},
		{name: "rounds to cents", input: "79.899", want: "79.90"},
		{name: "zero", input: "0", want: "0.00"},
		{name: "negative", input: "-1.00", wantErr: errs.ErrValueIsInvalid},
		{name: "garbage", input: "ten", wantErr: errs.ErrValueIsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := kernel.MoneyFromString(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, m.Validate())
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	price := kernel.MustMoney("79.90")

	assert.Equal(t, "159.80", price.Times(2).String())
	assert.Equal(t, "239.70", price.Times(2).Add(price).String())
	assert.True(t, price.Times(2).IsEqual(kernel.MustMoney("159.8")))
	assert.True(t, kernel.ZeroMoney().Decimal().Equal(decimal.Zero))
}

func TestMoney_ZeroValueIsInvalid(t *testing.T) {
	var m kernel.Money
	require.ErrorIs(t, m.Validate(), errs.ErrValueIsRequired)
}

func TestNewOperatorID(t *testing.T) {
	id, err := kernel.NewOperatorID("  alice ")
	require.NoError(t, err)
	assert.Equal(t, kernel.OperatorID("alice"), id)
	assert.False(t, id.IsZero())

	_, err = kernel.NewOperatorID("   ")
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	assert.True(t, kernel.NoOperator.IsZero())
}

func TestNewCustomer(t *testing.T) {
	t.Run("valid customer", func(t *testing.T) {
		c, err := kernel.NewCustomer("Maria Silva", "maria.silva@email.com", "(11) 99999-9999", "Rua das Flores, 123")
		require.NoError(t, err)
		require.NoError(t, c.Validate())
		assert.Equal(t, "Maria Silva", c.Name())
		assert.Equal(t, "Rua das Flores, 123", c.Address())
	})

	t.Run("name is required and email checked", func(t *testing.T) {
		_, err := kernel.NewCustomer(" ", "not-an-email", "", "")
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("zero value is invalid", func(t *testing.T) {
		var c kernel.Customer
		require.Error(t, c.Validate())
	})
}
