package notify

import (
	"context"
	"errors"

	"holiday-booking/internal/conflict"
)

// Multi forwards each conflict to every notifier and joins their errors.
type Multi []conflict.Notifier

func (m Multi) NotifyConflictDetected(ctx context.Context, c conflict.Conflict) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyConflictDetected(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
