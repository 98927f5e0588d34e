package local

import (
	"crypto/ed25519"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/authz"
)

//go:embed data/world.v1.json
var defaultWorldJSON []byte

type worldJSON struct {
	Tiles   []tileJSON   `json:"tiles"`
	Players []playerJSON `json:"players"`
}

type tileJSON struct {
	ID        int    `json:"id"`
	Safety    uint64 `json:"safety"`
	Neighbors []int  `json:"neighbors"`
}

type playerJSON struct {
	ID        string            `json:"id"`
	Tile      int               `json:"tile"`
	Embarked  bool              `json:"embarked"`
	Idle      bool              `json:"idle"`
	Route     []int             `json:"route"`
	Arrival   string            `json:"arrival"`
	Pirate    bool              `json:"pirate"`
	Attack    uint64            `json:"attack"`
	Defence   uint64            `json:"defence"`
	Health    uint64            `json:"health"`
	Damage    uint64            `json:"damage"`
	Luck      uint64            `json:"luck"`
	Mobility  uint64            `json:"mobility"`
	Charisma  uint64            `json:"charisma"`
	Fuel      uint64            `json:"fuel"`
	Resources map[string]uint64 `json:"resources"`
	Tokens    map[string]uint64 `json:"tokens"`
	Signers   *signersJSON      `json:"signers"`
}

type signersJSON struct {
	Threshold int               `json:"threshold"`
	Keys      map[string]string `json:"keys"`
}

// Default returns a World built from the embedded fixture.
func Default() (*World, error) {
	return Load(defaultWorldJSON)
}

// LoadFile reads a fixture from path. An empty path loads the embedded one.
func LoadFile(path string) (*World, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world fixture: %w", err)
	}
	return Load(raw)
}

// Load decodes a JSON world fixture.
func Load(raw []byte) (*World, error) {
	var payload worldJSON
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode world fixture: %w", err)
	}

	w := newWorld()
	for _, t := range payload.Tiles {
		if _, exists := w.tiles[t.ID]; exists {
			return nil, fmt.Errorf("duplicate tile %d", t.ID)
		}
		if t.Safety > 100 {
			return nil, fmt.Errorf("tile %d: safety %d above 100", t.ID, t.Safety)
		}
		w.tiles[t.ID] = tile{safety: t.Safety, neighbors: append([]int(nil), t.Neighbors...)}
	}
	for _, p := range payload.Players {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("player id is required")
		}
		if _, exists := w.players[id]; exists {
			return nil, fmt.Errorf("duplicate player %q", id)
		}
		if _, ok := w.tiles[p.Tile]; !ok {
			return nil, fmt.Errorf("player %q: unknown tile %d", id, p.Tile)
		}
		decoded, err := decodePlayer(p)
		if err != nil {
			return nil, fmt.Errorf("player %q: %w", id, err)
		}
		w.players[id] = decoded

		if p.Signers != nil {
			set, err := decodeSigners(*p.Signers)
			if err != nil {
				return nil, fmt.Errorf("player %q signers: %w", id, err)
			}
			w.signers[id] = set
		}
	}
	return w, nil
}

func decodePlayer(p playerJSON) (*player, error) {
	decoded := &player{
		tile:      p.Tile,
		embarked:  p.Embarked,
		idle:      p.Idle,
		route:     append([]int(nil), p.Route...),
		pirate:    p.Pirate,
		attack:    p.Attack,
		defence:   p.Defence,
		health:    p.Health,
		damage:    p.Damage,
		luck:      p.Luck,
		mobility:  p.Mobility,
		charisma:  p.Charisma,
		fuel:      p.Fuel,
		resources: map[string]uint64{},
		tokens:    map[string]uint64{},
	}
	for asset, amount := range p.Resources {
		decoded.resources[asset] = amount
	}
	for asset, token := range p.Tokens {
		decoded.tokens[asset] = token
	}
	if p.Arrival != "" {
		arrival, err := time.Parse(time.RFC3339, p.Arrival)
		if err != nil {
			return nil, fmt.Errorf("arrival: %w", err)
		}
		decoded.arrival = arrival.UTC()
	}
	if len(decoded.route) > 0 && decoded.arrival.IsZero() {
		return nil, fmt.Errorf("a route needs an arrival time")
	}
	return decoded, nil
}

func decodeSigners(raw signersJSON) (authz.SignerSet, error) {
	set := authz.SignerSet{Threshold: raw.Threshold, Keys: make(map[string]ed25519.PublicKey, len(raw.Keys))}
	for kid, encoded := range raw.Keys {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return authz.SignerSet{}, fmt.Errorf("key %q: %w", kid, err)
		}
		if len(key) != ed25519.PublicKeySize {
			return authz.SignerSet{}, fmt.Errorf("key %q: want %d bytes, got %d", kid, ed25519.PublicKeySize, len(key))
		}
		set.Keys[kid] = ed25519.PublicKey(key)
	}
	return set, nil
}
