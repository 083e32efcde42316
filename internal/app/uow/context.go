package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: no unit of work in context")

type unitKey struct{}

// Attach returns a context carrying the unit of work so repositories
// opened further down the call chain share the same transaction.
func Attach(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

// Current reports the unit of work attached to ctx, if any.
func Current(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, ok
}
