// Package metrics exports confrontation counters through OpenTelemetry.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/cryptopia-com/cryptopia-world/internal/platform/errors"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/confrontation"
)

const meterName = "github.com/cryptopia-com/cryptopia-world/internal/services/pirates"

const (
	TransitionsTotal     = "pirates_transitions_total"
	BattlesTotal         = "pirates_battles_total"
	EscapesTotal         = "pirates_escapes_total"
	LootTransferredTotal = "pirates_loot_transferred_total"
	LootDivertedTotal    = "pirates_loot_diverted_total"
)

// Recorder implements confrontation.Recorder with OpenTelemetry counters.
type Recorder struct {
	transitions metric.Int64Counter
	battles     metric.Int64Counter
	escapes     metric.Int64Counter
	transferred metric.Int64Counter
	diverted    metric.Int64Counter
}

// New registers the counters on meter; a nil meter uses the global provider.
func New(meter metric.Meter) (*Recorder, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	var (
		r   Recorder
		err error
	)
	if r.transitions, err = meter.Int64Counter(TransitionsTotal,
		metric.WithDescription("Confrontation transitions by operation and result.")); err != nil {
		return nil, fmt.Errorf("register %s: %w", TransitionsTotal, err)
	}
	if r.battles, err = meter.Int64Counter(BattlesTotal,
		metric.WithDescription("Quick battles by initiator and outcome.")); err != nil {
		return nil, fmt.Errorf("register %s: %w", BattlesTotal, err)
	}
	if r.escapes, err = meter.Int64Counter(EscapesTotal,
		metric.WithDescription("Escape attempts by success.")); err != nil {
		return nil, fmt.Errorf("register %s: %w", EscapesTotal, err)
	}
	if r.transferred, err = meter.Int64Counter(LootTransferredTotal,
		metric.WithDescription("Asset units looted by attackers.")); err != nil {
		return nil, fmt.Errorf("register %s: %w", LootTransferredTotal, err)
	}
	if r.diverted, err = meter.Int64Counter(LootDivertedTotal,
		metric.WithDescription("Asset units diverted to the sink while looting.")); err != nil {
		return nil, fmt.Errorf("register %s: %w", LootDivertedTotal, err)
	}
	return &r, nil
}

// Transition counts one transition. Rejections are labeled with their code.
func (r *Recorder) Transition(ctx context.Context, operation string, err error) {
	r.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", resultOf(err)),
	))
}

// Battle counts one battle.
func (r *Recorder) Battle(ctx context.Context, initiator string, outcome confrontation.Outcome) {
	r.battles.Add(ctx, 1, metric.WithAttributes(
		attribute.String("initiator", initiator),
		attribute.String("outcome", string(outcome)),
	))
}

// Escape counts one escape attempt.
func (r *Recorder) Escape(ctx context.Context, success bool) {
	r.escapes.Add(ctx, 1, metric.WithAttributes(attribute.String("success", strconv.FormatBool(success))))
}

// Loot adds looted and diverted units.
func (r *Recorder) Loot(ctx context.Context, transferred, diverted uint64) {
	r.transferred.Add(ctx, int64(transferred))
	r.diverted.Add(ctx, int64(diverted))
}

func resultOf(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return string(appErr.Code)
	}
	return "error"
}
