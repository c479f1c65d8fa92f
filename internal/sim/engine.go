package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"hotel-ops-backend/config"
)

// Engine is the simulation context: one value owns every counter, collection,
// and staff resource, so a full reset or a second independent instance is
// just another Engine. All state transitions happen inside callbacks
// serialized by the engine mutex; "waiting" is always an explicit state,
// never a blocked goroutine.
type Engine struct {
	mu  sync.Mutex
	cfg config.SimConfig

	clock Clock
	rng   *rand.Rand

	ledger Ledger
	rooms  *Registry
	guests map[int64]*Guest
	queue  []*Guest

	bellboy      Bellboy
	cleaners     int
	cleaningBusy int
	selected     ItemKind

	nextGuestID int64
	served      int64

	persister Persister
	notifier  Notifier

	restored *Snapshot
	epoch    int64
	closed   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRNG fixes the random source, for reproducible runs.
func WithRNG(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithPersister attaches the durable snapshot sink.
func WithPersister(p Persister) Option {
	return func(e *Engine) { e.persister = p }
}

// WithNotifier attaches the operator alert sink.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithSnapshot restores a previously persisted snapshot on Start.
func WithSnapshot(snap Snapshot) Option {
	return func(e *Engine) { e.restored = &snap }
}

// New creates an Engine. Call Start to restore state and begin ticking.
func New(cfg config.SimConfig, clock Clock, opts ...Option) *Engine {
	e := &Engine{
		cfg:         cfg,
		clock:       clock,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		guests:      make(map[int64]*Guest),
		rooms:       NewRegistry(cfg.Rooms),
		nextGuestID: 1,
	}
	e.ledger.balance = cfg.StartingBalance
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start restores any persisted snapshot, seats whatever the restored queue
// allows, and begins the periodic tick.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.restored != nil {
		e.applySnapshot(*e.restored)
		e.restored = nil
	}
	e.drainQueue()
	e.commit()
	e.mu.Unlock()

	e.scheduleTick()
}

// Stop turns every outstanding callback into a no-op. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

func (e *Engine) scheduleTick() {
	e.clock.AfterFunc(e.cfg.Tick, func() {
		e.Tick()
		e.mu.Lock()
		closed := e.closed
		e.mu.Unlock()
		if !closed {
			e.scheduleTick()
		}
	})
}

// Tick is the periodic pass: drain the admission queue, expire overdue
// requests, and (in the auto-delivery variant) put an idle worker to work.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	changed := e.drainQueue() > 0
	if e.checkPatience(e.clock.Now()) {
		changed = true
	}
	if e.tryServe() {
		changed = true
	}
	if changed {
		e.commit()
	}
}

// after schedules fn on the clock, wrapped in the staleness guard every
// deferred callback needs: fn runs under the engine lock only if the engine
// is still open and no reset has happened since scheduling. Target-specific
// re-validation stays with fn.
func (e *Engine) after(d time.Duration, fn func()) {
	epoch := e.epoch
	e.clock.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed || e.epoch != epoch {
			return
		}
		fn()
	})
}

// guestIn returns the guest only if it still exists and is in one of the
// given states. The nil return is the routine stale-target outcome, not an
// error.
func (e *Engine) guestIn(id int64, states ...GuestState) *Guest {
	g, ok := e.guests[id]
	if !ok {
		return nil
	}
	for _, s := range states {
		if g.State == s {
			return g
		}
	}
	return nil
}

// roomIn is guestIn's counterpart for rooms.
func (e *Engine) roomIn(id int, statuses ...RoomStatus) *Room {
	room := e.rooms.Get(id)
	if room == nil {
		return nil
	}
	for _, s := range statuses {
		if room.Status == s {
			return room
		}
	}
	return nil
}

// SpawnGuest creates a guest and immediately attempts reception. An empty
// class means the weighted spawn roll; a concrete class is an operator
// override.
func (e *Engine) SpawnGuest(class GuestClass) (GuestView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch class {
	case "":
		class = pickWeighted(e.rng, []weightedChoice[GuestClass]{
			{value: ClassVIP, weight: e.cfg.ClassSpawnWeights.VIP},
			{value: ClassRegular, weight: e.cfg.ClassSpawnWeights.Regular},
			{value: ClassBudget, weight: e.cfg.ClassSpawnWeights.Budget},
		})
	case ClassVIP, ClassRegular, ClassBudget:
	default:
		return GuestView{}, fmt.Errorf("unknown guest class %q: %w", class, ErrInvalidTransition)
	}

	g := &Guest{ID: e.nextGuestID, Class: class, State: GuestSpawned}
	e.nextGuestID++
	e.guests[g.ID] = g

	e.arriveAtReception(g)
	e.commit()
	return e.guestView(g), nil
}

// arriveAtReception seats the guest if a room is free, otherwise queues it.
func (e *Engine) arriveAtReception(g *Guest) {
	g.State = GuestAtReception
	if room := e.rooms.FindFree(); room != nil {
		e.seat(g, room)
		return
	}
	g.State = GuestQueued
	e.queue = append(e.queue, g)
}

// drainQueue seats waiting guests while free rooms exist, VIPs first and FIFO
// among equals. Idempotent; invoked whenever a room turns free and on every
// tick. Returns the number of guests seated.
func (e *Engine) drainQueue() int {
	seated := 0
	for len(e.queue) > 0 {
		room := e.rooms.FindFree()
		if room == nil {
			break
		}
		idx := 0
		for i, g := range e.queue {
			if g.Class == ClassVIP {
				idx = i
				break
			}
		}
		g := e.queue[idx]
		e.queue = append(e.queue[:idx], e.queue[idx+1:]...)
		e.seat(g, room)
		seated++
	}
	return seated
}

// seat is the check-in: occupy the room, award the check-in reward, roll the
// stay's requests, and start the stay timer that forces checkout no matter
// what remains unresolved.
func (e *Engine) seat(g *Guest, room *Room) {
	if err := e.rooms.Occupy(room.ID, g.ID); err != nil {
		// Defensive: FindFree just returned this room.
		return
	}
	g.State = GuestInRoom
	g.RoomID = room.ID
	g.CheckedInAt = e.clock.Now()

	e.rollRequests(g)
	e.ledger.Award(e.cfg.Rewards.CheckIn + e.cfg.Rewards.CheckInPerRequest*int64(len(g.Pending)))

	if len(g.Pending) > 0 {
		e.scheduleAdvance(g.ID, e.randDur(e.cfg.OrderMinDelay, e.cfg.OrderMaxDelay))
	}

	id := g.ID
	e.after(e.cfg.Stay, func() {
		g := e.guestIn(id, GuestInRoom, GuestRequesting)
		if g == nil {
			return
		}
		e.checkout(g)
		e.commit()
	})
}

// checkout settles the stay: unresolved requests count as missed (without
// anger), the payout lands on the ledger, the room turns dirty, and the guest
// walks out. The payout is base x class multiplier (halved-by-config when the
// guest was ever angry) plus the accumulated request bonuses.
func (e *Engine) checkout(g *Guest) {
	if g.Current != "" {
		g.Current = ""
		g.Missed++
	}
	g.Missed += len(g.Pending)
	g.Pending = nil
	g.State = GuestPaying

	base := float64(e.cfg.Rewards.CheckoutBase) * e.payoutMult(g.Class)
	if g.Angry {
		base *= e.cfg.Rewards.AngryFactor
	}
	payout := int64(math.Round(base)) + g.Bonus
	e.ledger.Award(payout)

	roomID := g.RoomID
	if err := e.rooms.MarkDirty(roomID); err == nil {
		e.notify("room_dirty", fmt.Sprintf("Room %d needs cleaning", roomID))
	}

	if e.persister != nil {
		e.persister.RecordStay(StayRecord{
			GuestID:        g.ID,
			RoomID:         roomID,
			Class:          g.Class,
			CheckIn:        g.CheckedInAt,
			CheckOut:       e.clock.Now(),
			Payout:         payout,
			Angry:          g.Angry,
			RequestsServed: g.Served,
			RequestsMissed: g.Missed,
		})
	}

	g.State = GuestExiting
	id := g.ID
	e.after(e.cfg.Exit, func() {
		g := e.guestIn(id, GuestExiting)
		if g == nil {
			return
		}
		g.State = GuestDone
		delete(e.guests, id)
		e.served++
		e.commit()
	})
}

// AddRoom appends a room, charged against the ledger, and drains the queue
// into the new capacity.
func (e *Engine) AddRoom() (RoomView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ledger.Charge(e.cfg.Costs.AddRoom); err != nil {
		return RoomView{}, err
	}
	room := e.rooms.AddRoom()
	e.drainQueue()
	e.commit()
	return RoomView{ID: room.ID, Status: room.Status, OccupantID: room.OccupantID}, nil
}

// SelectMenuItem arms the manual-delivery variant with an item to carry.
func (e *Engine) SelectMenuItem(kind ItemKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.menuItem(kind); !ok {
		return fmt.Errorf("unknown menu item %q: %w", kind, ErrInvalidTransition)
	}
	e.selected = kind
	e.commit()
	return nil
}

// AttemptDelivery sends the delivery worker to the given room with the
// currently selected item. Every precondition failure is advisory and leaves
// state unchanged.
func (e *Engine) AttemptDelivery(roomID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.bellboy.Hired {
		return fmt.Errorf("no delivery worker hired: %w", ErrInvalidTransition)
	}
	if e.selected == "" {
		return fmt.Errorf("no menu item selected: %w", ErrInvalidTransition)
	}
	if e.bellboy.Phase != BellboyIdle {
		return fmt.Errorf("delivery worker is busy: %w", ErrInvalidTransition)
	}
	room := e.roomIn(roomID, RoomOccupied)
	if room == nil {
		return fmt.Errorf("room %d has no guest: %w", roomID, ErrInvalidTransition)
	}
	g, ok := e.guests[room.OccupantID]
	if !ok || !g.requesting() {
		return fmt.Errorf("room %d has no waiting order: %w", roomID, ErrInvalidTransition)
	}
	if g.Current != e.selected {
		return fmt.Errorf("guest ordered %s, not %s: %w", g.Current, e.selected, ErrInvalidTransition)
	}

	item := e.selected
	e.selected = ""
	e.beginDelivery(g, item)
	e.commit()
	return nil
}

// Deposit credits coins from the external mini-game. It is the ledger-only
// entry point: the caller never reads or touches room or guest state.
func (e *Engine) Deposit(amount int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if amount <= 0 {
		return e.ledger.Balance(), fmt.Errorf("deposit must be positive: %w", ErrInvalidTransition)
	}
	e.ledger.Award(amount)
	e.commit()
	return e.ledger.Balance(), nil
}

// ResetAll restores the pristine startup state and invalidates every
// outstanding timer.
func (e *Engine) ResetAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch++
	e.ledger.balance = e.cfg.StartingBalance
	e.rooms = NewRegistry(e.cfg.Rooms)
	e.guests = make(map[int64]*Guest)
	e.queue = nil
	e.bellboy = Bellboy{}
	e.cleaners = 0
	e.cleaningBusy = 0
	e.selected = ""
	e.nextGuestID = 1
	e.served = 0
	e.commit()
}

// Snapshot returns the read-only view of the whole simulation.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Balance:      e.ledger.Balance(),
		QueueLen:     len(e.queue),
		Cleaners:     e.cleaners,
		CleaningBusy: e.cleaningBusy,
		SelectedItem: e.selected,
		ActiveOrders: e.activeOrders(),
		GuestsServed: e.served,
		NextGuestID:  e.nextGuestID,
	}

	for _, room := range e.rooms.Rooms() {
		snap.Rooms = append(snap.Rooms, RoomView{ID: room.ID, Status: room.Status, OccupantID: room.OccupantID})
	}

	for _, g := range e.guests {
		snap.Guests = append(snap.Guests, e.guestView(g))
	}
	sort.Slice(snap.Guests, func(i, j int) bool { return snap.Guests[i].ID < snap.Guests[j].ID })

	phase := e.bellboy.Phase
	if phase == "" {
		phase = BellboyIdle
	}
	snap.Bellboy = BellboyView{
		Hired:  e.bellboy.Hired,
		Phase:  phase,
		RoomID: e.bellboy.RoomID,
		Item:   e.bellboy.Item,
	}
	return snap
}

func (e *Engine) guestView(g *Guest) GuestView {
	return GuestView{
		ID:       g.ID,
		Class:    g.Class,
		State:    g.State,
		RoomID:   g.RoomID,
		Current:  g.Current,
		Deadline: g.Deadline,
		Pending:  len(g.Pending),
		Bonus:    g.Bonus,
		Angry:    g.Angry,
	}
}

// applySnapshot rebuilds state from a persisted snapshot. In-flight timers
// are never reconstructed, so anything frozen mid-cycle is normalized to a
// safe resting state: Cleaning rooms come back Dirty, occupied rooms get
// their guest back with no requests and a fresh stay timer, and queued guests
// come back as fresh regular-class arrivals. Malformed values fall back to
// defaults rather than failing startup.
func (e *Engine) applySnapshot(s Snapshot) {
	if s.Balance > 0 {
		e.ledger.balance = s.Balance
	} else {
		e.ledger.balance = e.cfg.StartingBalance
	}

	roomCount := len(s.Rooms)
	if roomCount < e.cfg.Rooms {
		roomCount = e.cfg.Rooms
	}
	e.rooms = NewRegistry(roomCount)
	e.guests = make(map[int64]*Guest)
	e.queue = nil

	maxGuestID := int64(0)
	for _, rv := range s.Rooms {
		room := e.rooms.Get(rv.ID)
		if room == nil {
			continue
		}
		switch rv.Status {
		case RoomOccupied:
			if rv.OccupantID <= 0 {
				room.Status = RoomDirty
				continue
			}
			room.Status = RoomOccupied
			room.OccupantID = rv.OccupantID
			if rv.OccupantID > maxGuestID {
				maxGuestID = rv.OccupantID
			}
			g := &Guest{
				ID:          rv.OccupantID,
				Class:       ClassRegular,
				State:       GuestInRoom,
				RoomID:      rv.ID,
				CheckedInAt: e.clock.Now(),
			}
			e.guests[g.ID] = g
			id := g.ID
			e.after(e.cfg.Stay, func() {
				g := e.guestIn(id, GuestInRoom, GuestRequesting)
				if g == nil {
					return
				}
				e.checkout(g)
				e.commit()
			})
		case RoomDirty, RoomCleaning:
			room.Status = RoomDirty
		default:
			room.Status = RoomFree
		}
	}

	e.nextGuestID = s.NextGuestID
	if e.nextGuestID <= maxGuestID {
		e.nextGuestID = maxGuestID + 1
	}
	if e.nextGuestID < 1 {
		e.nextGuestID = 1
	}

	for i := 0; i < s.QueueLen; i++ {
		g := &Guest{ID: e.nextGuestID, Class: ClassRegular, State: GuestQueued}
		e.nextGuestID++
		e.guests[g.ID] = g
		e.queue = append(e.queue, g)
	}

	if s.Bellboy.Hired {
		e.bellboy = Bellboy{Hired: true, Phase: BellboyIdle}
	}
	if s.Cleaners > 0 {
		e.cleaners = s.Cleaners
	}
	if s.GuestsServed > 0 {
		e.served = s.GuestsServed
	}
}

func (e *Engine) commit() {
	if e.persister != nil {
		e.persister.Persist(e.snapshotLocked())
	}
}

func (e *Engine) notify(event, message string) {
	if e.notifier != nil {
		e.notifier.Notify(event, message)
	}
}

func (e *Engine) patienceMult(class GuestClass) float64 {
	return classFactor(e.cfg.PatienceMultipliers, class)
}

func (e *Engine) payoutMult(class GuestClass) float64 {
	return classFactor(e.cfg.PayoutMultipliers, class)
}

func classFactor(f config.ClassFactors, class GuestClass) float64 {
	var v float64
	switch class {
	case ClassVIP:
		v = f.VIP
	case ClassBudget:
		v = f.Budget
	default:
		v = f.Regular
	}
	if v <= 0 {
		v = 1
	}
	return v
}

func (e *Engine) randDur(min, max time.Duration) time.Duration {
	return time.Duration(randBetween(e.rng, int64(min), int64(max)))
}
