// Package txn holds helpers for running multi-document writes as one unit,
// including a compensating fallback for deployments without transactions.
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions (standalone servers, some managed offerings).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: transaction numbers on a non replica set
			51,  // historic IllegalOperation code
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	s := strings.ToLower(err.Error())
	has := func(sub string) bool { return strings.Contains(s, sub) }

	switch {
	case has("illegal operation"):
		return true
	case has("transaction") && (has("replica set") || has("session") || has("not supported")):
		return true
	case has("session") && has("not supported"):
		return true
	}
	return false
}

type inTxKey struct{}
type journalKey struct{}

// WithinTx marks ctx as already running inside a unit of work.
func WithinTx(ctx context.Context) context.Context {
	return context.WithValue(ctx, inTxKey{}, true)
}

// InTx reports whether ctx carries a unit of work.
func InTx(ctx context.Context) bool {
	v, _ := ctx.Value(inTxKey{}).(bool)
	return v
}

// UndoFunc reverses one write. It runs with a context that is not cancelled
// together with the failed operation.
type UndoFunc func(ctx context.Context) error

type journal struct {
	mu   sync.Mutex
	undo []UndoFunc
}

func (j *journal) add(fn UndoFunc) {
	j.mu.Lock()
	j.undo = append(j.undo, fn)
	j.mu.Unlock()
}

// rollback runs the undo steps newest first and keeps going past failures.
func (j *journal) rollback(ctx context.Context) error {
	j.mu.Lock()
	steps := j.undo
	j.undo = nil
	j.mu.Unlock()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnRollback registers an undo step when ctx runs under RunCompensated.
// Outside a compensated unit it is a no-op.
func OnRollback(ctx context.Context, fn UndoFunc) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.add(fn)
	}
}

// RunCompensated runs fn and, if it fails, undoes every write fn registered
// through OnRollback. Writers must be individually atomic and guard their own
// preconditions; this only provides all-or-nothing on failure.
func RunCompensated(ctx context.Context, fn func(ctx context.Context) error) error {
	j := &journal{}
	cctx := context.WithValue(WithinTx(ctx), journalKey{}, j)

	if err := fn(cctx); err != nil {
		if rbErr := j.rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return nil
}
