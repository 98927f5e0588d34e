package confrontation

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/cryptopia-com/cryptopia-world/internal/platform/errors"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/escape"
)

// EscapeResult is the confrontation after an escape attempt.
type EscapeResult struct {
	Confrontation Confrontation
	Escape        escape.Result
}

// AttemptEscape lets the target try to flee once, before the response
// deadline. The attempt costs fuel whether it succeeds or not.
func (m *Manager) AttemptEscape(ctx context.Context, target string) (EscapeResult, error) {
	normalize(&target)
	if target == "" {
		return EscapeResult{}, actorRequired("target")
	}

	var result EscapeResult
	err := m.run(ctx, OpAttemptEscape, []string{target}, func(ctx context.Context, now time.Time) error {
		c, err := m.activeForTarget(ctx, target, now)
		if err != nil {
			return err
		}
		if now.After(c.Deadline) {
			return reject(apperrors.CodeResponseWindowClosed, "response window closed",
				withTime(pair(c.Attacker, c.Target), "Deadline", c.Deadline))
		}
		if c.EscapeAttempted {
			return reject(apperrors.CodeEscapeAlreadyTried, "escape already attempted", pair(c.Attacker, c.Target))
		}

		fleeingMobility, pursuingMobility, err := m.registry.Mobility(ctx, c.Target, c.Attacker)
		if err != nil {
			return fmt.Errorf("mobility: %w", err)
		}
		fleeingLuck, pursuingLuck, err := m.registry.Luck(ctx, c.Target, c.Attacker)
		if err != nil {
			return fmt.Errorf("luck: %w", err)
		}
		seed, err := m.seed(OpAttemptEscape, c.Target)
		if err != nil {
			return err
		}
		outcome := escape.Resolve(m.escapeParams,
			escape.Ship{Mobility: fleeingMobility, Luck: fleeingLuck},
			escape.Ship{Mobility: pursuingMobility, Luck: pursuingLuck},
			seed,
		)

		next := c
		next.EscapeAttempted = true
		if outcome.Success {
			next = next.conclude(now, OutcomeEscaped)
		}
		err = m.commit(ctx, func(ctx context.Context) (Change, error) {
			if m.rules.EscapeFuel > 0 {
				if err := m.inventory.ChargeFuel(ctx, c.Target, m.rules.EscapeFuel); err != nil {
					return Change{}, fmt.Errorf("charge escape fuel: %w", err)
				}
			}
			if outcome.Success {
				if err := unfreezePair(ctx, m.world, c.Attacker, c.Target); err != nil {
					return Change{}, err
				}
			}
			return Change{Confrontation: &next}, nil
		})
		if err != nil {
			return err
		}
		result = EscapeResult{Confrontation: next, Escape: outcome}
		return nil
	})
	if err != nil {
		return EscapeResult{}, err
	}
	if m.recorder != nil {
		m.recorder.Escape(ctx, result.Escape.Success)
	}
	outcome := "failed"
	if result.Escape.Success {
		outcome = string(OutcomeEscaped)
	}
	m.emit(ctx, OpAttemptEscape, target, result.Confrontation.Attacker, target, outcome,
		fmt.Sprintf("score=%d", result.Escape.Score))
	return result, nil
}
