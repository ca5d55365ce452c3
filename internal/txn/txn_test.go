package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "generic error", err: errors.New("some random error"), want: false},
		{
			name: "command error code 20",
			err:  mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"},
			want: true,
		},
		{name: "command error code 263", err: mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, want: true},
		{name: "other command error code", err: mongo.CommandError{Code: 100, Message: "Some other error"}, want: false},
		{name: "transaction and replica set keywords", err: errors.New("transaction failed because this is not a replica set member"), want: true},
		{name: "session and not supported", err: errors.New("session operations are not supported on this server"), want: true},
		{name: "only one keyword", err: errors.New("transaction failed"), want: false},
		{name: "illegal operation", err: errors.New("illegal operation during transaction"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotSupported(tt.err))
		})
	}
}

func TestRunCompensatedRollsBackNewestFirst(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	err := RunCompensated(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTx(ctx))
		OnRollback(ctx, func(context.Context) error { order = append(order, "first"); return nil })
		OnRollback(ctx, func(context.Context) error { order = append(order, "second"); return nil })
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestRunCompensatedSuccessSkipsUndo(t *testing.T) {
	called := false
	err := RunCompensated(context.Background(), func(ctx context.Context) error {
		OnRollback(ctx, func(context.Context) error { called = true; return nil })
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestRunCompensatedReportsUndoFailure(t *testing.T) {
	boom := errors.New("boom")
	undoErr := errors.New("undo failed")

	err := RunCompensated(context.Background(), func(ctx context.Context) error {
		OnRollback(ctx, func(context.Context) error { return undoErr })
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, undoErr)
}

func TestOnRollbackOutsideUnitIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		OnRollback(context.Background(), func(context.Context) error { return nil })
	})
	assert.False(t, InTx(context.Background()))
}
