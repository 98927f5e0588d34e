package confrontation

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/cryptopia-com/cryptopia-world/internal/platform/errors"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/battle"
)

// BattleResult is the outcome of a quick battle. Plunder is set when the
// attacker won.
type BattleResult struct {
	Confrontation Confrontation
	Battle        battle.Outcome
	Winner        string
	Plunder       *Plunder
}

// StartQuickBattleAsTarget lets the target fight instead of waiting, while
// the response window is open. The target is side 1 and wins ties.
func (m *Manager) StartQuickBattleAsTarget(ctx context.Context, target string) (BattleResult, error) {
	normalize(&target)
	if target == "" {
		return BattleResult{}, actorRequired("target")
	}

	var result BattleResult
	err := m.run(ctx, OpBattleAsTarget, []string{target}, func(ctx context.Context, now time.Time) error {
		c, err := m.activeForTarget(ctx, target, now)
		if err != nil {
			return err
		}
		if now.After(c.Deadline) {
			return reject(apperrors.CodeResponseWindowClosed, "response window closed",
				withTime(pair(c.Attacker, c.Target), "Deadline", c.Deadline))
		}
		result, err = m.fight(ctx, c, c.Target, now)
		return err
	})
	if err != nil {
		return BattleResult{}, err
	}
	m.emitBattle(ctx, OpBattleAsTarget, target, result)
	return result, nil
}

// StartQuickBattleAsAttacker lets the linked attacker force the battle once
// the target let the response deadline pass, until expiration. The attacker
// is side 1 and wins ties.
func (m *Manager) StartQuickBattleAsAttacker(ctx context.Context, attacker, target string) (BattleResult, error) {
	normalize(&attacker, &target)
	if attacker == "" {
		return BattleResult{}, actorRequired("attacker")
	}
	if target == "" {
		return BattleResult{}, actorRequired("target")
	}

	var result BattleResult
	err := m.run(ctx, OpBattleAsAttacker, []string{target, attacker}, func(ctx context.Context, now time.Time) error {
		c, err := m.activeForTarget(ctx, target, now)
		if err != nil {
			return err
		}
		if c.Attacker != attacker {
			return reject(apperrors.CodeNotLinkedAttacker, "caller is not the linked attacker",
				map[string]string{"Actor": attacker, "Target": target})
		}
		if !now.After(c.Deadline) {
			return reject(apperrors.CodeResponseWindowOpen, "target may still respond",
				withTime(pair(c.Attacker, c.Target), "Deadline", c.Deadline))
		}
		result, err = m.fight(ctx, c, c.Attacker, now)
		return err
	})
	if err != nil {
		return BattleResult{}, err
	}
	m.emitBattle(ctx, OpBattleAsAttacker, attacker, result)
	return result, nil
}

// fight resolves the battle with initiator as side 1 and commits the result.
func (m *Manager) fight(ctx context.Context, c Confrontation, initiator string, now time.Time) (BattleResult, error) {
	responder := c.Attacker
	if initiator == c.Attacker {
		responder = c.Target
	}

	initiatorStats, responderStats, err := m.registry.CombatStats(ctx, initiator, responder)
	if err != nil {
		return BattleResult{}, fmt.Errorf("combat stats: %w", err)
	}
	safety, err := m.world.AreaSafety(ctx, c.Location)
	if err != nil {
		return BattleResult{}, fmt.Errorf("area safety of tile %d: %w", c.Location, err)
	}
	seed, err := m.seed("battle", initiator)
	if err != nil {
		return BattleResult{}, err
	}

	outcome, err := battle.Resolve(battle.Request{
		Side1:      combatant(initiatorStats, initiator == c.Attacker),
		Side2:      combatant(responderStats, responder == c.Attacker),
		TileSafety: safety,
		Mode:       m.battleMode,
	}, seed)
	if err != nil {
		return BattleResult{}, fmt.Errorf("resolve battle: %w", err)
	}

	winner := initiator
	if outcome.Victor == battle.Side2 {
		winner = responder
	}

	result := BattleResult{Battle: outcome, Winner: winner}
	if winner == c.Attacker {
		claim := Plunder{
			Attacker:  c.Attacker,
			Target:    c.Target,
			Deadline:  now.Add(m.rules.PlunderTimeout),
			CreatedAt: now,
		}
		concluded := c.conclude(now, OutcomeAttackerWon)
		err = m.commit(ctx, func(ctx context.Context) (Change, error) {
			if err := freezePair(ctx, m.world, c.Attacker, c.Target, claim.Deadline); err != nil {
				return Change{}, err
			}
			if err := m.registry.AwardProgress(ctx, c.Attacker, m.rules.AttackerWinXP, m.rules.AttackerWinAlignment); err != nil {
				return Change{}, fmt.Errorf("award %s: %w", c.Attacker, err)
			}
			return Change{Confrontation: &concluded, Plunder: &claim}, nil
		})
		result.Confrontation = concluded
		result.Plunder = &claim
	} else {
		concluded := c.conclude(now, OutcomeTargetWon)
		err = m.commit(ctx, func(ctx context.Context) (Change, error) {
			if err := unfreezePair(ctx, m.world, c.Attacker, c.Target); err != nil {
				return Change{}, err
			}
			if err := m.registry.AwardProgress(ctx, c.Target, m.rules.TargetWinXP, m.rules.TargetWinAlignment); err != nil {
				return Change{}, fmt.Errorf("award %s: %w", c.Target, err)
			}
			return Change{Confrontation: &concluded}, nil
		})
		result.Confrontation = concluded
	}
	if err != nil {
		return BattleResult{}, err
	}
	return result, nil
}

// combatant maps registry stats onto a battle side. Attackers read tile
// safety inverted.
func combatant(stats CombatStats, attacker bool) battle.Combatant {
	return battle.Combatant{
		Attack:             stats.Attack,
		Defence:            stats.Defence,
		Health:             stats.Health,
		Damage:             stats.Damage,
		TileSafetyInverted: attacker,
	}
}

func (m *Manager) emitBattle(ctx context.Context, op, initiator string, result BattleResult) {
	if m.recorder != nil {
		m.recorder.Battle(ctx, op, result.Confrontation.Outcome)
	}
	m.emit(ctx, op, initiator, result.Confrontation.Attacker, result.Confrontation.Target,
		string(result.Confrontation.Outcome), "winner="+result.Winner)
}
