package sim

import "fmt"

// BellboyPhase tracks the delivery worker's journey:
// Idle -> ToPickup -> ToGuest -> Returning -> Idle.
type BellboyPhase string

const (
	BellboyIdle      BellboyPhase = "idle"
	BellboyToPickup  BellboyPhase = "to_pickup"
	BellboyToGuest   BellboyPhase = "to_guest"
	BellboyReturning BellboyPhase = "returning"
)

// Bellboy is the single delivery worker. Capacity is one: at most one
// delivery owns the worker at a time.
type Bellboy struct {
	Hired   bool
	Phase   BellboyPhase
	GuestID int64
	RoomID  int
	Item    ItemKind
}

// HireBellboy hires the delivery worker. A second hire is rejected.
func (e *Engine) HireBellboy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bellboy.Hired {
		return fmt.Errorf("delivery worker already hired: %w", ErrInvalidTransition)
	}
	if err := e.ledger.Charge(e.cfg.Costs.HireBellboy); err != nil {
		return err
	}
	e.bellboy = Bellboy{Hired: true, Phase: BellboyIdle}
	e.commit()
	return nil
}

// HireCleaner adds one cleaner to the pool. The cost scales with the pool
// size. Returns the new cleaner count.
func (e *Engine) HireCleaner() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cost := e.cfg.Costs.HireCleanerBase * int64(e.cleaners+1)
	if err := e.ledger.Charge(cost); err != nil {
		return e.cleaners, err
	}
	e.cleaners++
	e.commit()
	return e.cleaners, nil
}

// cleaningCapacity is the counting-semaphore limit on concurrent cleanings.
func (e *Engine) cleaningCapacity() int {
	return e.cleaners * e.cfg.CleanerCapacity
}

// RequestClean starts a cleaning cycle on a dirty room. Cleaning only ever
// starts through this deliberate operator action, gated on spare pool
// capacity.
func (e *Engine) RequestClean(roomID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cleaningBusy >= e.cleaningCapacity() {
		if e.cleaners == 0 {
			return fmt.Errorf("no cleaner hired: %w", ErrInvalidTransition)
		}
		return fmt.Errorf("all %d cleaners busy: %w", e.cleaners, ErrInvalidTransition)
	}
	if err := e.rooms.StartCleaning(roomID); err != nil {
		return err
	}
	e.cleaningBusy++
	e.after(e.cfg.CleanTravel+e.cfg.CleanTime, func() {
		e.finishCleaning(roomID)
	})
	e.commit()
	return nil
}

// finishCleaning completes a cleaning cycle and immediately drains the queue
// so waiting guests are seated without an extra external trigger.
func (e *Engine) finishCleaning(roomID int) {
	room := e.roomIn(roomID, RoomCleaning)
	if room == nil {
		return
	}
	if err := e.rooms.FinishCleaning(roomID); err != nil {
		return
	}
	if e.cleaningBusy > 0 {
		e.cleaningBusy--
	}
	e.ledger.Award(e.cfg.Rewards.Cleaning)
	e.drainQueue()
	e.commit()
}

// tryServe is the auto-delivery selector, run every tick when enabled. An
// idle worker picks the most pressing open request: VIP guests first, then
// the earliest-created request.
func (e *Engine) tryServe() bool {
	if !e.cfg.AutoDelivery || !e.bellboy.Hired || e.bellboy.Phase != BellboyIdle {
		return false
	}
	var target *Guest
	for _, g := range e.guests {
		if !g.requesting() {
			continue
		}
		if target == nil || betterDeliveryTarget(g, target) {
			target = g
		}
	}
	if target == nil {
		return false
	}
	e.beginDelivery(target, target.Current)
	return true
}

func betterDeliveryTarget(g, than *Guest) bool {
	if (g.Class == ClassVIP) != (than.Class == ClassVIP) {
		return g.Class == ClassVIP
	}
	if !g.RequestedAt.Equal(than.RequestedAt) {
		return g.RequestedAt.Before(than.RequestedAt)
	}
	return g.ID < than.ID
}

// beginDelivery reserves the worker and walks it through the pickup, guest,
// and return legs. Each leg completion re-validates its target; a guest that
// has exited or changed requests mid-flight means the delivery is silently
// dropped. At-most-once, best-effort, never retried.
func (e *Engine) beginDelivery(g *Guest, item ItemKind) {
	e.bellboy.Phase = BellboyToPickup
	e.bellboy.GuestID = g.ID
	e.bellboy.RoomID = g.RoomID
	e.bellboy.Item = item

	e.after(e.cfg.DeliveryTravel, func() {
		if e.bellboy.Phase != BellboyToPickup {
			return
		}
		e.bellboy.Phase = BellboyToGuest
		e.after(e.cfg.DeliveryTravel, func() {
			e.bellboyArrive()
		})
	})
}

func (e *Engine) bellboyArrive() {
	if e.bellboy.Phase != BellboyToGuest {
		return
	}
	if g, ok := e.guests[e.bellboy.GuestID]; ok && g.RoomID == e.bellboy.RoomID {
		e.fulfil(g, e.bellboy.Item)
	}
	e.bellboy.Phase = BellboyReturning
	e.after(e.cfg.DeliveryTravel, func() {
		if e.bellboy.Phase != BellboyReturning {
			return
		}
		e.bellboy.Phase = BellboyIdle
		e.bellboy.GuestID = 0
		e.bellboy.RoomID = 0
		e.bellboy.Item = ""
		e.tryServe()
		e.commit()
	})
	e.commit()
}
