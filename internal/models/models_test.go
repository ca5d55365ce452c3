package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "customer", want: RoleCustomer},
		{in: "Retailer", want: RoleRetailer},
		{in: " WHOLESALER ", want: RoleWholesaler},
		{in: "admin", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownRole))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestKindTransitions(t *testing.T) {
	tests := []struct {
		kind     RequestKind
		from, to RequestStatus
		want     bool
	}{
		{KindReorder, StatusPending, StatusApproved, true},
		{KindReorder, StatusPending, StatusRejected, true},
		{KindReorder, StatusApproved, StatusRejected, false},
		{KindReorder, StatusRejected, StatusApproved, false},
		{KindReorder, StatusApproved, StatusCompleted, false},
		{KindReorder, StatusPending, StatusPending, false},
		{KindOrder, StatusPending, StatusApproved, true},
		{KindOrder, StatusApproved, StatusCompleted, true},
		{KindOrder, StatusApproved, StatusRejected, false},
		{KindOrder, StatusPending, StatusCompleted, false},
		{KindOrder, StatusCompleted, StatusApproved, false},
	}
	for _, tt := range tests {
		name := string(tt.kind) + ":" + string(tt.from) + "->" + string(tt.to)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.CanTransition(tt.from, tt.to))
		})
	}

	assert.True(t, KindOrder.IsTarget(StatusCompleted))
	assert.False(t, KindReorder.IsTarget(StatusCompleted))
	assert.False(t, KindReorder.IsTarget(StatusPending))
}

func TestClassifyStock(t *testing.T) {
	assert.Equal(t, StockOutOfStock, ClassifyStock(0, 10))
	assert.Equal(t, StockLow, ClassifyStock(1, 10))
	assert.Equal(t, StockLow, ClassifyStock(10, 10))
	assert.Equal(t, StockInStock, ClassifyStock(11, 10))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, NormalizeName("Paracetamol"), NormalizeName("paracetamol "))
	assert.Equal(t, "a b", NormalizeName("  A B\t"))
}
