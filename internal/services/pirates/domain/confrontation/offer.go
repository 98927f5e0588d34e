package confrontation

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/cryptopia-com/cryptopia-world/internal/platform/errors"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/authz"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/plunder"
)

// AcceptOfferRequest carries a target's signed offer, submitted by the
// attacker.
type AcceptOfferRequest struct {
	Attacker string
	Target   string
	Items    []plunder.Item
	// Deadline bounds the validity of the proofs.
	Deadline time.Time
	Nonce    string
	Proofs   []string
}

// OfferResult is the concluded confrontation and the settled offer.
type OfferResult struct {
	Confrontation Confrontation
	Settlement    plunder.Settlement
}

// AcceptOffer settles the confrontation with the target's offer. Only the
// linked attacker may accept, and only until the response deadline.
func (m *Manager) AcceptOffer(ctx context.Context, req AcceptOfferRequest) (OfferResult, error) {
	normalize(&req.Attacker, &req.Target, &req.Nonce)
	if req.Attacker == "" {
		return OfferResult{}, actorRequired("attacker")
	}
	if req.Target == "" {
		return OfferResult{}, actorRequired("target")
	}
	items, err := plunder.Validate(req.Items)
	if err != nil {
		return OfferResult{}, reject(apperrors.CodeOfferInvalid, err.Error(), map[string]string{"Reason": err.Error()})
	}

	var result OfferResult
	err = m.run(ctx, OpAcceptOffer, []string{req.Target, req.Attacker}, func(ctx context.Context, now time.Time) error {
		c, err := m.activeForTarget(ctx, req.Target, now)
		if err != nil {
			return err
		}
		if c.Attacker != req.Attacker {
			return reject(apperrors.CodeNotLinkedAttacker, "caller is not the linked attacker",
				map[string]string{"Actor": req.Attacker, "Target": req.Target})
		}
		if now.After(c.Deadline) {
			return reject(apperrors.CodeResponseWindowClosed, "response window closed",
				withTime(pair(c.Attacker, c.Target), "Deadline", c.Deadline))
		}

		nonce := Nonce{Subject: req.Target, Value: req.Nonce}
		used, err := m.store.NonceUsed(ctx, nonce)
		if err != nil {
			return fmt.Errorf("check nonce: %w", err)
		}
		if used {
			return reject(apperrors.CodeOfferNonceUsed, "offer nonce already used", pair(c.Attacker, c.Target))
		}
		if err := m.verifier.Verify(ctx, authz.Request{
			Subject:      req.Target,
			Counterparty: req.Attacker,
			Terms:        items,
			Deadline:     req.Deadline,
			Nonce:        req.Nonce,
			Proofs:       req.Proofs,
		}); err != nil {
			var appErr *apperrors.Error
			if errors.As(err, &appErr) {
				return err
			}
			return fmt.Errorf("verify offer: %w", err)
		}

		charisma, err := m.registry.Charisma(ctx, req.Target)
		if err != nil {
			return fmt.Errorf("charisma of %s: %w", req.Target, err)
		}
		settlement, err := plunder.Negotiate(m.plunderParams, items, charisma)
		if err != nil {
			return reject(apperrors.CodeOfferInvalid, err.Error(), map[string]string{"Reason": err.Error()})
		}

		concluded := c.conclude(now, OutcomeNegotiated)
		err = m.commit(ctx, func(ctx context.Context) (Change, error) {
			if err := m.settle(ctx, req.Target, req.Attacker, settlement); err != nil {
				return Change{}, err
			}
			if err := unfreezePair(ctx, m.world, c.Attacker, c.Target); err != nil {
				return Change{}, err
			}
			return Change{Confrontation: &concluded, Nonce: &nonce}, nil
		})
		if err != nil {
			return err
		}
		result = OfferResult{Confrontation: concluded, Settlement: settlement}
		return nil
	})
	if err != nil {
		return OfferResult{}, err
	}
	m.emit(ctx, OpAcceptOffer, req.Attacker, req.Attacker, req.Target, string(OutcomeNegotiated),
		fmt.Sprintf("diverted=%d", result.Settlement.TotalDiverted()))
	return result, nil
}

// settle moves a settlement: transfers to the receiver, deductions from the
// owner to the sink.
func (m *Manager) settle(ctx context.Context, owner, receiver string, settlement plunder.Settlement) error {
	if transfers := settlement.Transfers(); len(transfers) > 0 {
		if err := m.inventory.TransferAssets(ctx, owner, receiver, transfers); err != nil {
			return fmt.Errorf("transfer assets: %w", err)
		}
	}
	for _, item := range settlement.Diversions() {
		if err := m.inventory.DivertToSink(ctx, owner, item); err != nil {
			return fmt.Errorf("divert %s to sink: %w", item.Asset, err)
		}
	}
	return nil
}
