package confrontation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/cryptopia-com/cryptopia-world/internal/platform/errors"
)

// InterceptRequest asks to intercept Target. RouteIndex claims interception
// along the target's current route; nil means the same or an adjacent tile.
type InterceptRequest struct {
	Attacker   string
	Target     string
	RouteIndex *int
}

// Intercept opens a confrontation between the attacker and the target and
// freezes both until it expires.
func (m *Manager) Intercept(ctx context.Context, req InterceptRequest) (Confrontation, error) {
	normalize(&req.Attacker, &req.Target)
	if req.Attacker == "" {
		return Confrontation{}, actorRequired("attacker")
	}
	if req.Target == "" {
		return Confrontation{}, actorRequired("target")
	}
	if req.Attacker == req.Target {
		return Confrontation{}, reject(apperrors.CodeSelfTarget, "attacker cannot target itself", pair(req.Attacker, req.Target))
	}
	if req.RouteIndex != nil && *req.RouteIndex < 0 {
		return Confrontation{}, reject(apperrors.CodeTargetUnreachable, "route index must not be negative",
			map[string]string{"Target": req.Target, "Tile": strconv.Itoa(*req.RouteIndex)})
	}

	var created Confrontation
	err := m.run(ctx, OpIntercept, []string{req.Target, req.Attacker}, func(ctx context.Context, now time.Time) error {
		attacker, target, fuel, err := m.checkIntercept(ctx, req, now)
		if err != nil {
			return err
		}

		deadline := now.Add(m.rules.ResponseTimeout)
		created = Confrontation{
			Attacker:   req.Attacker,
			Target:     req.Target,
			Location:   attacker.Tile,
			Arrival:    target.Arrival,
			Deadline:   deadline,
			Expiration: deadline.Add(m.rules.ExpirationWindow),
			CreatedAt:  now,
		}

		return m.commit(ctx, func(ctx context.Context) (Change, error) {
			if fuel > 0 {
				if err := m.inventory.ChargeFuel(ctx, req.Attacker, fuel); err != nil {
					return Change{}, fmt.Errorf("charge intercept fuel: %w", err)
				}
			}
			if err := m.registry.MarkPirateAligned(ctx, req.Attacker); err != nil {
				return Change{}, fmt.Errorf("mark pirate: %w", err)
			}
			if err := freezePair(ctx, m.world, req.Attacker, req.Target, created.Expiration); err != nil {
				return Change{}, err
			}
			return Change{Confrontation: &created}, nil
		})
	})
	if err != nil {
		return Confrontation{}, err
	}
	m.emit(ctx, OpIntercept, req.Attacker, req.Attacker, req.Target, "intercepted", "tile="+strconv.Itoa(created.Location))
	return created, nil
}

// checkIntercept validates every precondition of Intercept and returns the
// travel states and the fuel to charge.
func (m *Manager) checkIntercept(ctx context.Context, req InterceptRequest, now time.Time) (TravelState, TravelState, uint64, error) {
	attacker, err := m.registry.TravelState(ctx, req.Attacker)
	if err != nil {
		return TravelState{}, TravelState{}, 0, fmt.Errorf("travel state of %s: %w", req.Attacker, err)
	}
	attackerMeta := map[string]string{"Attacker": req.Attacker}
	switch {
	case !attacker.InWorld:
		return TravelState{}, TravelState{}, 0, reject(apperrors.CodeAttackerNotInWorld, "attacker is not in the world", attackerMeta)
	case attacker.Traveling:
		return TravelState{}, TravelState{}, 0, reject(apperrors.CodeAttackerTraveling, "attacker is traveling", attackerMeta)
	case !attacker.Embarked:
		return TravelState{}, TravelState{}, 0, reject(apperrors.CodeAttackerNotEmbarked, "attacker is not embarked", attackerMeta)
	}
	if err := m.checkNotEngaged(ctx, req.Attacker, now, apperrors.CodeAttackerBusy, "Attacker"); err != nil {
		return TravelState{}, TravelState{}, 0, err
	}

	target, err := m.registry.TravelState(ctx, req.Target)
	if err != nil {
		return TravelState{}, TravelState{}, 0, fmt.Errorf("travel state of %s: %w", req.Target, err)
	}
	targetMeta := map[string]string{"Target": req.Target}
	switch {
	case !target.InWorld:
		return TravelState{}, TravelState{}, 0, reject(apperrors.CodeTargetNotInWorld, "target is not in the world", targetMeta)
	case !target.Embarked:
		return TravelState{}, TravelState{}, 0, reject(apperrors.CodeTargetNotEmbarked, "target is not embarked", targetMeta)
	case target.Idle:
		return TravelState{}, TravelState{}, 0, reject(apperrors.CodeTargetIdle, "target is idle", targetMeta)
	}
	if err := m.checkNotEngaged(ctx, req.Target, now, apperrors.CodeTargetBusy, "Target"); err != nil {
		return TravelState{}, TravelState{}, 0, err
	}

	previous, found, err := m.loadConfrontation(ctx, req.Target)
	if err != nil {
		return TravelState{}, TravelState{}, 0, err
	}
	// A lapsed confrontation only protects the leg from the same attacker.
	if found && previous.Arrival.Equal(target.Arrival) && (previous.ConcludedAt != nil || previous.Attacker == req.Attacker) {
		return TravelState{}, TravelState{}, 0, reject(apperrors.CodeTargetIntercepted, "target already intercepted on this leg", targetMeta)
	}

	claim, found, err := m.loadPlunder(ctx, req.Attacker, req.Target)
	if err != nil {
		return TravelState{}, TravelState{}, 0, err
	}
	if found && claim.Available(now) {
		return TravelState{}, TravelState{}, 0, reject(apperrors.CodeTargetUnderPlunder, "target is under an unexpired plunder claim",
			withTime(pair(req.Attacker, req.Target), "Deadline", claim.Deadline))
	}

	pirate, err := m.registry.IsPirateAligned(ctx, req.Target)
	if err != nil {
		return TravelState{}, TravelState{}, 0, fmt.Errorf("alignment of %s: %w", req.Target, err)
	}
	if pirate {
		return TravelState{}, TravelState{}, 0, reject(apperrors.CodeTargetIsPirate, "target is a pirate", targetMeta)
	}

	fuel, err := m.reach(ctx, req, attacker, target)
	if err != nil {
		return TravelState{}, TravelState{}, 0, err
	}
	return attacker, target, fuel, nil
}

// checkNotEngaged rejects actors already bound by an active confrontation on
// either side.
func (m *Manager) checkNotEngaged(ctx context.Context, actor string, now time.Time, code apperrors.Code, role string) error {
	asTarget, found, err := m.loadConfrontation(ctx, actor)
	if err != nil {
		return err
	}
	if found && asTarget.Active(now) {
		return reject(code, role+" is already in a confrontation", map[string]string{role: actor})
	}
	asAttacker, found, err := m.loadByAttacker(ctx, actor)
	if err != nil {
		return err
	}
	if found && asAttacker.Attacker == actor && asAttacker.Active(now) {
		return reject(code, role+" is already in a confrontation", map[string]string{role: actor})
	}
	return nil
}

// reach returns the fuel the interception costs, or rejects an unreachable
// target.
func (m *Manager) reach(ctx context.Context, req InterceptRequest, attacker, target TravelState) (uint64, error) {
	unreachable := reject(apperrors.CodeTargetUnreachable, "target is out of reach", map[string]string{
		"Target": req.Target,
		"Tile":   strconv.Itoa(attacker.Tile),
	})

	if req.RouteIndex != nil {
		ok, err := m.world.IsReachableByRoute(ctx, attacker.Tile, target.Route, *req.RouteIndex, target.Tile, target.Arrival)
		if err != nil {
			return 0, fmt.Errorf("route reachability: %w", err)
		}
		if !ok {
			return 0, unreachable
		}
		return m.rules.interceptFuel(req.RouteIndex), nil
	}

	if attacker.Tile == target.Tile {
		return 0, nil
	}
	adjacent, err := m.world.IsAdjacent(ctx, attacker.Tile, target.Tile)
	if err != nil {
		return 0, fmt.Errorf("adjacency: %w", err)
	}
	if !adjacent {
		return 0, unreachable
	}
	return m.rules.interceptFuel(nil), nil
}
