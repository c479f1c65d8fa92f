package sim

import (
	"fmt"
	"time"
)

// ItemKind identifies one entry of the snack menu.
type ItemKind string

// MenuItem is one orderable item. Price is both the coins earned on delivery
// and the bonus added to the guest's checkout.
type MenuItem struct {
	Kind  ItemKind `json:"kind"`
	Label string   `json:"label"`
	Price int64    `json:"price"`
}

// Menu returns the configured menu.
func (e *Engine) Menu() []MenuItem {
	items := make([]MenuItem, len(e.cfg.Menu))
	for i, m := range e.cfg.Menu {
		items[i] = MenuItem{Kind: ItemKind(m.Kind), Label: m.Label, Price: m.Price}
	}
	return items
}

func (e *Engine) menuItem(kind ItemKind) (MenuItem, bool) {
	for _, m := range e.cfg.Menu {
		if ItemKind(m.Kind) == kind {
			return MenuItem{Kind: kind, Label: m.Label, Price: m.Price}, true
		}
	}
	return MenuItem{}, false
}

// rollRequests draws the stay's request list: a weighted count (0..3), then a
// uniform menu item per slot.
func (e *Engine) rollRequests(g *Guest) {
	counts := make([]weightedChoice[int], len(e.cfg.RequestCountWeights))
	for i, w := range e.cfg.RequestCountWeights {
		counts[i] = weightedChoice[int]{value: i, weight: w}
	}
	n := pickWeighted(e.rng, counts)

	items := make([]weightedChoice[ItemKind], len(e.cfg.Menu))
	for i, m := range e.cfg.Menu {
		items[i] = weightedChoice[ItemKind]{value: ItemKind(m.Kind), weight: 1}
	}
	for i := 0; i < n; i++ {
		g.Pending = append(g.Pending, pickWeighted(e.rng, items))
	}
}

// activeOrders counts guests with an open request, delivery in flight
// included. The order throttle compares against this.
func (e *Engine) activeOrders() int {
	n := 0
	for _, g := range e.guests {
		if g.Current != "" {
			n++
		}
	}
	return n
}

// advanceRequests is the request cycle's single driver. For a guest sitting
// idle in its room it either opens the next pending request, defers when the
// order throttle is saturated, or, with nothing left to serve, moves the
// guest to payment.
func (e *Engine) advanceRequests(g *Guest) {
	if g.State != GuestInRoom {
		return
	}
	if len(g.Pending) == 0 && g.Current == "" {
		e.checkout(g)
		return
	}

	if e.activeOrders() >= e.cfg.MaxActiveOrders {
		// Admission control: defer order generation until capacity frees up.
		e.scheduleAdvance(g.ID, e.randDur(e.cfg.OrderRetryMin, e.cfg.OrderRetryMax))
		return
	}

	g.Current = g.Pending[0]
	g.Pending = g.Pending[1:]
	now := e.clock.Now()
	g.RequestedAt = now
	g.Deadline = now.Add(e.scaledPatience(g.Class))
	g.State = GuestRequesting
}

// scheduleAdvance re-enters advanceRequests after d, re-validating the guest
// first; the guest may have been forcibly checked out meanwhile.
func (e *Engine) scheduleAdvance(id int64, d time.Duration) {
	e.after(d, func() {
		g := e.guestIn(id, GuestInRoom)
		if g == nil {
			return
		}
		e.advanceRequests(g)
		e.commit()
	})
}

// checkPatience runs on every tick: any request past its deadline is
// cancelled, the guest turns angry, and after a short grace the next request
// (or payment) follows. The frustration cost is capped at the one skipped
// item; later requests still run.
func (e *Engine) checkPatience(now time.Time) bool {
	changed := false
	for _, g := range e.guests {
		if !g.requesting() || now.Before(g.Deadline) {
			continue
		}
		item := g.Current
		g.Current = ""
		g.Missed++
		g.Angry = true
		g.State = GuestInRoom
		changed = true
		e.notify("guest_angry", fmt.Sprintf("Guest %d in room %d gave up waiting for %s", g.ID, g.RoomID, item))
		e.scheduleAdvance(g.ID, e.cfg.Grace)
	}
	return changed
}

// fulfil completes the guest's current request. The bonus is awarded exactly
// once and only strictly before the deadline; a late arrival is dropped and
// left for checkPatience to judge.
func (e *Engine) fulfil(g *Guest, kind ItemKind) bool {
	if !g.requesting() || g.Current != kind {
		return false
	}
	if !e.clock.Now().Before(g.Deadline) {
		return false
	}
	item, ok := e.menuItem(kind)
	if !ok {
		return false
	}
	g.Bonus += item.Price
	g.Served++
	g.Current = ""
	g.State = GuestInRoom
	e.ledger.Award(item.Price)
	e.scheduleAdvance(g.ID, e.cfg.Pacing)
	return true
}

func (e *Engine) scaledPatience(class GuestClass) time.Duration {
	return time.Duration(float64(e.cfg.Patience) * e.patienceMult(class))
}
