package middleware

import (
	"context"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
)

// OutboxFlush pushes staged event records to the publisher after a command
// succeeds. Runs inside the transaction middleware so staged events commit
// or roll back with the writes that raised them.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err == nil {
				err = box.Flush(ctx)
			}
			if err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
