package pirates

import "time"

// Messages of pirates.v1. Each tagged field becomes a proto3 field numbered
// by its position in the struct, so new fields are appended, never inserted.

// Item is one inventory slot. Kind is "fungible" (default) or
// "non_fungible".
type Item struct {
	Asset   string `proto:"asset"`
	Kind    string `proto:"kind"`
	Slot    uint32 `proto:"slot"`
	Amount  uint64 `proto:"amount"`
	TokenID uint64 `proto:"token_id"`
}

// Confrontation is the wire form of a confrontation record.
type Confrontation struct {
	Attacker        string     `proto:"attacker"`
	Target          string     `proto:"target"`
	State           string     `proto:"state"`
	Location        int        `proto:"location"`
	Arrival         time.Time  `proto:"arrival"`
	Deadline        time.Time  `proto:"deadline"`
	Expiration      time.Time  `proto:"expiration"`
	EscapeAttempted bool       `proto:"escape_attempted"`
	CreatedAt       time.Time  `proto:"created_at"`
	ConcludedAt     *time.Time `proto:"concluded_at"`
	Outcome         string     `proto:"outcome"`
}

// Plunder is the wire form of a plunder right.
type Plunder struct {
	Attacker  string     `proto:"attacker"`
	Target    string     `proto:"target"`
	State     string     `proto:"state"`
	Deadline  time.Time  `proto:"deadline"`
	CreatedAt time.Time  `proto:"created_at"`
	LootedAt  *time.Time `proto:"looted_at"`
	// LootHash is hex encoded.
	LootHash string `proto:"loot_hash"`
}

type InterceptRequest struct {
	Attacker   string `proto:"attacker"`
	Target     string `proto:"target"`
	RouteIndex *int   `proto:"route_index"`
}

type InterceptResponse struct {
	Confrontation Confrontation `proto:"confrontation"`
}

type AcceptOfferRequest struct {
	Attacker string    `proto:"attacker"`
	Target   string    `proto:"target"`
	Items    []Item    `proto:"items"`
	Deadline time.Time `proto:"deadline"`
	Nonce    string    `proto:"nonce"`
	Proofs   []string  `proto:"proofs"`
}

// Settlement lists what reached the attacker and what was diverted to the
// sink.
type Settlement struct {
	Transferred []Item `proto:"transferred"`
	Diverted    []Item `proto:"diverted"`
}

type AcceptOfferResponse struct {
	Confrontation Confrontation `proto:"confrontation"`
	Settlement    Settlement    `proto:"settlement"`
}

type AttemptEscapeRequest struct {
	Target string `proto:"target"`
}

type AttemptEscapeResponse struct {
	Confrontation Confrontation `proto:"confrontation"`
	Escaped       bool          `proto:"escaped"`
	Score         uint64        `proto:"score"`
}

// Battle roles.
const (
	RoleTarget   = "target"
	RoleAttacker = "attacker"
)

// StartQuickBattleRequest starts a battle as the target or, once the
// response window closed, as the attacker.
type StartQuickBattleRequest struct {
	Role     string `proto:"role"`
	Attacker string `proto:"attacker"`
	Target   string `proto:"target"`
}

type BattleSide struct {
	EffectiveAttack uint64 `proto:"effective_attack"`
	TurnsUntilWin   uint64 `proto:"turns_until_win"`
	DamageTaken     uint64 `proto:"damage_taken"`
}

type StartQuickBattleResponse struct {
	Confrontation Confrontation `proto:"confrontation"`
	Winner        string        `proto:"winner"`
	Victor        string        `proto:"victor"`
	Side1         BattleSide    `proto:"side_1"`
	Side2         BattleSide    `proto:"side_2"`
	Plunder       *Plunder      `proto:"plunder"`
}

type PlunderRequest struct {
	Attacker string `proto:"attacker"`
	Target   string `proto:"target"`
	Items    []Item `proto:"items"`
}

type PlunderResponse struct {
	Plunder    Plunder    `proto:"plunder"`
	Settlement Settlement `proto:"settlement"`
}

type GetConfrontationRequest struct {
	Target string `proto:"target"`
}

type GetConfrontationResponse struct {
	State         string         `proto:"state"`
	Confrontation *Confrontation `proto:"confrontation"`
}

type GetPlunderRequest struct {
	Attacker string `proto:"attacker"`
	Target   string `proto:"target"`
}

type GetPlunderResponse struct {
	State   string   `proto:"state"`
	Plunder *Plunder `proto:"plunder"`
}

type ListAuditEventsRequest struct {
	Target   string `proto:"target"`
	PageSize int32  `proto:"page_size"`
}

type AuditEvent struct {
	ID        string    `proto:"id"`
	Timestamp time.Time `proto:"timestamp"`
	EventName string    `proto:"event_name"`
	Actor     string    `proto:"actor"`
	Attacker  string    `proto:"attacker"`
	Target    string    `proto:"target"`
	Outcome   string    `proto:"outcome"`
	Detail    string    `proto:"detail"`
}

type ListAuditEventsResponse struct {
	Events []AuditEvent `proto:"events"`
}

// GetAttacker and GetTarget let interceptors read the parties of a call.

func (r *InterceptRequest) GetAttacker() string { return r.Attacker }
func (r *InterceptRequest) GetTarget() string { return r.Target }
func (r *AcceptOfferRequest) GetAttacker() string { return r.Attacker }
func (r *AcceptOfferRequest) GetTarget() string { return r.Target }
func (r *AttemptEscapeRequest) GetTarget() string { return r.Target }
func (r *StartQuickBattleRequest) GetAttacker() string { return r.Attacker }
func (r *StartQuickBattleRequest) GetTarget() string { return r.Target }
func (r *PlunderRequest) GetAttacker() string { return r.Attacker }
func (r *PlunderRequest) GetTarget() string { return r.Target }
func (r *GetConfrontationRequest) GetTarget() string { return r.Target }
func (r *GetPlunderRequest) GetAttacker() string { return r.Attacker }
func (r *GetPlunderRequest) GetTarget() string { return r.Target }
func (r *ListAuditEventsRequest) GetTarget() string { return r.Target }
