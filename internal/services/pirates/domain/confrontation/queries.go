package confrontation

import (
	"context"
)

// GetConfrontation returns the target's confrontation with its state derived
// at the current time. A target never intercepted has StateNone.
func (m *Manager) GetConfrontation(ctx context.Context, target string) (View, error) {
	normalize(&target)
	if target == "" {
		return View{}, actorRequired("target")
	}
	c, found, err := m.loadConfrontation(ctx, target)
	if err != nil {
		return View{}, err
	}
	if !found {
		return View{State: StateNone}, nil
	}
	return View{State: c.State(m.clock().UTC()), Confrontation: &c}, nil
}

// GetPlunder returns the attacker's plunder right over the target.
func (m *Manager) GetPlunder(ctx context.Context, attacker, target string) (PlunderView, error) {
	normalize(&attacker, &target)
	if attacker == "" {
		return PlunderView{}, actorRequired("attacker")
	}
	if target == "" {
		return PlunderView{}, actorRequired("target")
	}
	p, found, err := m.loadPlunder(ctx, attacker, target)
	if err != nil {
		return PlunderView{}, err
	}
	if !found {
		return PlunderView{State: PlunderNone}, nil
	}
	return PlunderView{State: p.State(m.clock().UTC()), Plunder: &p}, nil
}
