package confrontation

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	apperrors "github.com/cryptopia-com/cryptopia-world/internal/platform/errors"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/plunder"
)

// PlunderRequest names the target slots the attacker wants to loot.
type PlunderRequest struct {
	Attacker string
	Target   string
	Items    []plunder.Item
}

// LootResult is the consumed plunder record and what it yielded.
type LootResult struct {
	Plunder    Plunder
	Settlement plunder.Settlement
}

// Plunder consumes the attacker's plunder right over the target. The target's
// luck can sink slots or shrink fungible amounts. Afterwards the attacker
// stays frozen for the bounty window and the target is released.
func (m *Manager) Plunder(ctx context.Context, req PlunderRequest) (LootResult, error) {
	normalize(&req.Attacker, &req.Target)
	if req.Attacker == "" {
		return LootResult{}, actorRequired("attacker")
	}
	if req.Target == "" {
		return LootResult{}, actorRequired("target")
	}
	items, err := plunder.Validate(req.Items)
	if err != nil {
		return LootResult{}, reject(apperrors.CodeLootInvalid, err.Error(), map[string]string{"Reason": err.Error()})
	}

	var result LootResult
	err = m.run(ctx, OpPlunder, []string{req.Target, req.Attacker}, func(ctx context.Context, now time.Time) error {
		claim, found, err := m.loadPlunder(ctx, req.Attacker, req.Target)
		if err != nil {
			return err
		}
		if !found {
			return notFound("plunder", req.Target)
		}
		if claim.LootedAt != nil {
			return reject(apperrors.CodePlunderLooted, "plunder already executed",
				withTime(pair(req.Attacker, req.Target), "LootedAt", *claim.LootedAt))
		}
		if now.After(claim.Deadline) {
			return reject(apperrors.CodePlunderExpired, "plunder right lapsed",
				withTime(pair(req.Attacker, req.Target), "Deadline", claim.Deadline))
		}

		targetLuck, _, err := m.registry.Luck(ctx, req.Target, req.Attacker)
		if err != nil {
			return fmt.Errorf("luck: %w", err)
		}
		seed, err := m.seed(OpPlunder, req.Attacker)
		if err != nil {
			return err
		}
		settlement, err := plunder.Loot(m.plunderParams, items, targetLuck, seed)
		if err != nil {
			return reject(apperrors.CodeLootInvalid, err.Error(), map[string]string{"Reason": err.Error()})
		}

		looted := now
		claim.LootedAt = &looted
		claim.LootHash = plunder.Commitment(req.Attacker, req.Target, settlement.Transfers())

		err = m.commit(ctx, func(ctx context.Context) (Change, error) {
			if err := m.settle(ctx, req.Target, req.Attacker, settlement); err != nil {
				return Change{}, err
			}
			if err := m.world.Freeze(ctx, req.Attacker, req.Target, now.Add(m.rules.BountyWindow)); err != nil {
				return Change{}, fmt.Errorf("freeze %s for bounty: %w", req.Attacker, err)
			}
			if err := m.world.Unfreeze(ctx, req.Target, req.Attacker); err != nil {
				return Change{}, fmt.Errorf("unfreeze %s: %w", req.Target, err)
			}
			return Change{Plunder: &claim}, nil
		})
		if err != nil {
			return err
		}
		result = LootResult{Plunder: claim, Settlement: settlement}
		return nil
	})
	if err != nil {
		return LootResult{}, err
	}

	var transferred uint64
	for _, item := range result.Settlement.Transfers() {
		transferred += item.Amount
	}
	if m.recorder != nil {
		m.recorder.Loot(ctx, transferred, result.Settlement.TotalDiverted())
	}
	m.emit(ctx, OpPlunder, req.Attacker, req.Attacker, req.Target, "looted",
		"hash="+hex.EncodeToString(result.Plunder.LootHash))
	return result, nil
}
