// Package pirates exposes the confrontation manager over gRPC as
// pirates.v1.ConfrontationService.
package pirates

import (
	"context"
	"encoding/hex"
	"log"
	"strings"

	apperrors "github.com/cryptopia-com/cryptopia-world/internal/platform/errors"
	"github.com/cryptopia-com/cryptopia-world/internal/platform/grpc/pagination"
	"github.com/cryptopia-com/cryptopia-world/internal/platform/requestctx"
	grpcmeta "github.com/cryptopia-com/cryptopia-world/internal/services/pirates/api/grpc/metadata"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/battle"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/confrontation"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/plunder"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultAuditPageSize = 20
	maxAuditPageSize     = 100
)

// Confrontations is the manager surface the service drives.
type Confrontations interface {
	Intercept(ctx context.Context, req confrontation.InterceptRequest) (confrontation.Confrontation, error)
	AcceptOffer(ctx context.Context, req confrontation.AcceptOfferRequest) (confrontation.OfferResult, error)
	AttemptEscape(ctx context.Context, target string) (confrontation.EscapeResult, error)
	StartQuickBattleAsTarget(ctx context.Context, target string) (confrontation.BattleResult, error)
	StartQuickBattleAsAttacker(ctx context.Context, attacker, target string) (confrontation.BattleResult, error)
	Plunder(ctx context.Context, req confrontation.PlunderRequest) (confrontation.LootResult, error)
	GetConfrontation(ctx context.Context, target string) (confrontation.View, error)
	GetPlunder(ctx context.Context, attacker, target string) (confrontation.PlunderView, error)
}

// Service exposes pirates.v1 gRPC operations.
type Service struct {
	manager Confrontations
	audit   storage.AuditEventStore
}

// NewService creates a service backed by the manager. audit may be nil, in
// which case ListAuditEvents is unavailable.
func NewService(manager Confrontations, audit storage.AuditEventStore) *Service {
	return &Service{manager: manager, audit: audit}
}

var _ ConfrontationServiceServer = (*Service)(nil)

func (s *Service) Intercept(ctx context.Context, in *InterceptRequest) (*InterceptResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "intercept request is required")
	}
	if s == nil || s.manager == nil {
		return nil, status.Error(codes.Internal, "confrontation manager is not configured")
	}
	attacker, err := actingParty(ctx, RoleAttacker, in.Attacker)
	if err != nil {
		return nil, err
	}
	c, err := s.manager.Intercept(ctx, confrontation.InterceptRequest{
		Attacker:   attacker,
		Target:     in.Target,
		RouteIndex: in.RouteIndex,
	})
	if err != nil {
		return nil, handleError(ctx, "intercept", err)
	}
	return &InterceptResponse{Confrontation: confrontationToWire(c, confrontation.StateActive)}, nil
}

func (s *Service) AcceptOffer(ctx context.Context, in *AcceptOfferRequest) (*AcceptOfferResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "accept offer request is required")
	}
	if s == nil || s.manager == nil {
		return nil, status.Error(codes.Internal, "confrontation manager is not configured")
	}
	attacker, err := actingParty(ctx, RoleAttacker, in.Attacker)
	if err != nil {
		return nil, err
	}
	items, err := itemsFromWire(in.Items)
	if err != nil {
		return nil, err
	}
	result, err := s.manager.AcceptOffer(ctx, confrontation.AcceptOfferRequest{
		Attacker: attacker,
		Target:   in.Target,
		Items:    items,
		Deadline: in.Deadline,
		Nonce:    in.Nonce,
		Proofs:   in.Proofs,
	})
	if err != nil {
		return nil, handleError(ctx, "accept offer", err)
	}
	return &AcceptOfferResponse{
		Confrontation: confrontationToWire(result.Confrontation, confrontation.StateConcluded),
		Settlement:    settlementToWire(result.Settlement),
	}, nil
}

func (s *Service) AttemptEscape(ctx context.Context, in *AttemptEscapeRequest) (*AttemptEscapeResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "attempt escape request is required")
	}
	if s == nil || s.manager == nil {
		return nil, status.Error(codes.Internal, "confrontation manager is not configured")
	}
	target, err := actingParty(ctx, RoleTarget, in.Target)
	if err != nil {
		return nil, err
	}
	result, err := s.manager.AttemptEscape(ctx, target)
	if err != nil {
		return nil, handleError(ctx, "attempt escape", err)
	}
	state := confrontation.StateActive
	if result.Escape.Success {
		state = confrontation.StateConcluded
	}
	return &AttemptEscapeResponse{
		Confrontation: confrontationToWire(result.Confrontation, state),
		Escaped:       result.Escape.Success,
		Score:         result.Escape.Score,
	}, nil
}

func (s *Service) StartQuickBattle(ctx context.Context, in *StartQuickBattleRequest) (*StartQuickBattleResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "start quick battle request is required")
	}
	if s == nil || s.manager == nil {
		return nil, status.Error(codes.Internal, "confrontation manager is not configured")
	}

	var (
		result confrontation.BattleResult
		err    error
	)
	switch strings.ToLower(strings.TrimSpace(in.Role)) {
	case RoleTarget:
		var target string
		if target, err = actingParty(ctx, RoleTarget, in.Target); err != nil {
			return nil, err
		}
		result, err = s.manager.StartQuickBattleAsTarget(ctx, target)
	case RoleAttacker:
		var attacker string
		if attacker, err = actingParty(ctx, RoleAttacker, in.Attacker); err != nil {
			return nil, err
		}
		result, err = s.manager.StartQuickBattleAsAttacker(ctx, attacker, in.Target)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "role must be %q or %q", RoleTarget, RoleAttacker)
	}
	if err != nil {
		return nil, handleError(ctx, "start quick battle", err)
	}

	resp := &StartQuickBattleResponse{
		Confrontation: confrontationToWire(result.Confrontation, confrontation.StateConcluded),
		Winner:        result.Winner,
		Victor:        result.Battle.Victor.String(),
		Side1:         sideToWire(result.Battle.Side1),
		Side2:         sideToWire(result.Battle.Side2),
	}
	if result.Plunder != nil {
		p := plunderToWire(*result.Plunder, confrontation.PlunderLootAvailable)
		resp.Plunder = &p
	}
	return resp, nil
}

func (s *Service) Plunder(ctx context.Context, in *PlunderRequest) (*PlunderResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "plunder request is required")
	}
	if s == nil || s.manager == nil {
		return nil, status.Error(codes.Internal, "confrontation manager is not configured")
	}
	attacker, err := actingParty(ctx, RoleAttacker, in.Attacker)
	if err != nil {
		return nil, err
	}
	items, err := itemsFromWire(in.Items)
	if err != nil {
		return nil, err
	}
	result, err := s.manager.Plunder(ctx, confrontation.PlunderRequest{
		Attacker: attacker,
		Target:   in.Target,
		Items:    items,
	})
	if err != nil {
		return nil, handleError(ctx, "plunder", err)
	}
	return &PlunderResponse{
		Plunder:    plunderToWire(result.Plunder, confrontation.PlunderLooted),
		Settlement: settlementToWire(result.Settlement),
	}, nil
}

func (s *Service) GetConfrontation(ctx context.Context, in *GetConfrontationRequest) (*GetConfrontationResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get confrontation request is required")
	}
	if s == nil || s.manager == nil {
		return nil, status.Error(codes.Internal, "confrontation manager is not configured")
	}
	view, err := s.manager.GetConfrontation(ctx, in.Target)
	if err != nil {
		return nil, handleError(ctx, "get confrontation", err)
	}
	resp := &GetConfrontationResponse{State: string(view.State)}
	if view.Confrontation != nil {
		c := confrontationToWire(*view.Confrontation, view.State)
		resp.Confrontation = &c
	}
	return resp, nil
}

func (s *Service) GetPlunder(ctx context.Context, in *GetPlunderRequest) (*GetPlunderResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get plunder request is required")
	}
	if s == nil || s.manager == nil {
		return nil, status.Error(codes.Internal, "confrontation manager is not configured")
	}
	view, err := s.manager.GetPlunder(ctx, in.Attacker, in.Target)
	if err != nil {
		return nil, handleError(ctx, "get plunder", err)
	}
	resp := &GetPlunderResponse{State: string(view.State)}
	if view.Plunder != nil {
		p := plunderToWire(*view.Plunder, view.State)
		resp.Plunder = &p
	}
	return resp, nil
}

// ListAuditEvents returns the newest audit events of a target.
func (s *Service) ListAuditEvents(ctx context.Context, in *ListAuditEventsRequest) (*ListAuditEventsResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "list audit events request is required")
	}
	if s == nil || s.audit == nil {
		return nil, status.Error(codes.Unimplemented, "audit trail is not configured")
	}
	target := strings.TrimSpace(in.Target)
	if target == "" {
		return nil, status.Error(codes.InvalidArgument, "target is required")
	}

	pageSize := pagination.ClampPageSize(in.PageSize, pagination.PageSizeConfig{
		Default: defaultAuditPageSize,
		Max:     maxAuditPageSize,
	})
	events, err := s.audit.ListAuditEvents(ctx, target, pageSize)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list audit events: %v", err)
	}
	resp := &ListAuditEventsResponse{Events: make([]AuditEvent, 0, len(events))}
	for _, evt := range events {
		resp.Events = append(resp.Events, AuditEvent{
			ID:        evt.ID,
			Timestamp: evt.Timestamp,
			EventName: evt.EventName,
			Actor:     evt.Actor,
			Attacker:  evt.Attacker,
			Target:    evt.Target,
			Outcome:   evt.Outcome,
			Detail:    evt.Detail,
		})
	}
	return resp, nil
}

// actingParty resolves the party a mutating call acts as. The caller must be
// the authenticated player; an omitted party defaults to it.
func actingParty(ctx context.Context, role, party string) (string, error) {
	player := strings.TrimSpace(requestctx.PlayerIDFromContext(ctx))
	if player == "" {
		return "", status.Error(codes.PermissionDenied, "missing player identity")
	}
	party = strings.TrimSpace(party)
	if party == "" {
		return player, nil
	}
	if party != player {
		return "", status.Errorf(codes.PermissionDenied, "player is not the %s", role)
	}
	return party, nil
}

// handleError renders domain errors in the caller's locale. Anything else is
// logged and hidden behind Internal.
func handleError(ctx context.Context, op string, err error) error {
	if apperrors.GetCode(err) == apperrors.CodeUnknown {
		log.Printf("%s: %v", op, err)
	}
	return apperrors.HandleError(err, grpcmeta.LocaleFromContext(ctx))
}

func itemsFromWire(in []Item) ([]plunder.Item, error) {
	items := make([]plunder.Item, 0, len(in))
	for _, item := range in {
		kind := plunder.KindFungible
		switch strings.ToLower(strings.TrimSpace(item.Kind)) {
		case "", "fungible":
		case "non_fungible":
			kind = plunder.KindNonFungible
		default:
			return nil, status.Errorf(codes.InvalidArgument, "slot %d: unknown item kind %q", item.Slot, item.Kind)
		}
		items = append(items, plunder.Item{
			Asset:   strings.TrimSpace(item.Asset),
			Kind:    kind,
			Slot:    item.Slot,
			Amount:  item.Amount,
			TokenID: item.TokenID,
		})
	}
	return items, nil
}

func itemsToWire(in []plunder.Item) []Item {
	items := make([]Item, 0, len(in))
	for _, item := range in {
		items = append(items, Item{
			Asset:   item.Asset,
			Kind:    item.Kind.String(),
			Slot:    item.Slot,
			Amount:  item.Amount,
			TokenID: item.TokenID,
		})
	}
	return items
}

func settlementToWire(s plunder.Settlement) Settlement {
	return Settlement{
		Transferred: itemsToWire(s.Transfers()),
		Diverted:    itemsToWire(s.Diversions()),
	}
}

func confrontationToWire(c confrontation.Confrontation, state confrontation.State) Confrontation {
	return Confrontation{
		Attacker:        c.Attacker,
		Target:          c.Target,
		State:           string(state),
		Location:        c.Location,
		Arrival:         c.Arrival,
		Deadline:        c.Deadline,
		Expiration:      c.EffectiveExpiration(),
		EscapeAttempted: c.EscapeAttempted,
		CreatedAt:       c.CreatedAt,
		ConcludedAt:     c.ConcludedAt,
		Outcome:         string(c.Outcome),
	}
}

func plunderToWire(p confrontation.Plunder, state confrontation.PlunderState) Plunder {
	out := Plunder{
		Attacker:  p.Attacker,
		Target:    p.Target,
		State:     string(state),
		Deadline:  p.Deadline,
		CreatedAt: p.CreatedAt,
		LootedAt:  p.LootedAt,
	}
	if len(p.LootHash) > 0 {
		out.LootHash = hex.EncodeToString(p.LootHash)
	}
	return out
}

func sideToWire(side battle.SideOutcome) BattleSide {
	return BattleSide{
		EffectiveAttack: side.EffectiveAttack,
		TurnsUntilWin:   side.TurnsUntilWin,
		DamageTaken:     side.DamageTaken,
	}
}
