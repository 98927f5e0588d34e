package confrontation

import (
	"context"
	"fmt"
	"time"
)

// freezePair locks both parties until the given time.
func freezePair(ctx context.Context, world World, a, b string, until time.Time) error {
	if err := world.Freeze(ctx, a, b, until); err != nil {
		return fmt.Errorf("freeze %s: %w", a, err)
	}
	if err := world.Freeze(ctx, b, a, until); err != nil {
		return fmt.Errorf("freeze %s: %w", b, err)
	}
	return nil
}

// unfreezePair releases both parties.
func unfreezePair(ctx context.Context, world World, a, b string) error {
	if err := world.Unfreeze(ctx, a, b); err != nil {
		return fmt.Errorf("unfreeze %s: %w", a, err)
	}
	if err := world.Unfreeze(ctx, b, a); err != nil {
		return fmt.Errorf("unfreeze %s: %w", b, err)
	}
	return nil
}
