package sim

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-ops-backend/config"
)

// testConfig returns the default tuning with a funded ledger. Individual
// tests override the pieces they need deterministic.
func testConfig() config.SimConfig {
	cfg := config.SimConfig{StartingBalance: 500}
	config.ApplySimDefaults(&cfg)
	return cfg
}

// noRequests forces every guest to roll zero requests.
func noRequests(cfg *config.SimConfig) {
	cfg.RequestCountWeights = []int{100, 0, 0, 0}
}

// oneJuiceRequest forces every guest to roll exactly one juice request,
// opened exactly one second after check-in.
func oneJuiceRequest(cfg *config.SimConfig) {
	cfg.RequestCountWeights = []int{0, 100, 0, 0}
	cfg.Menu = []config.MenuItemConfig{{Kind: "juice", Label: "Juice", Price: 5}}
	cfg.OrderMinDelay = time.Second
	cfg.OrderMaxDelay = time.Second
}

func newTestEngine(t *testing.T, cfg config.SimConfig, opts ...Option) (*Engine, *ManualClock) {
	t.Helper()
	mc := NewManualClock(time.Unix(0, 0))
	opts = append([]Option{WithRNG(rand.New(rand.NewSource(1)))}, opts...)
	e := New(cfg, mc, opts...)
	e.Start()
	t.Cleanup(e.Stop)
	return e, mc
}

// recordingNotifier collects alert event kinds.
type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Notify(event, message string) {
	n.events = append(n.events, event)
}

func TestSpawnGuest_SeatsIntoFirstFreeRoom(t *testing.T) {
	cfg := testConfig()
	noRequests(&cfg)
	e, _ := newTestEngine(t, cfg)

	guest, err := e.SpawnGuest(ClassRegular)
	require.NoError(t, err)
	assert.Equal(t, GuestInRoom, guest.State)
	assert.Equal(t, 1, guest.RoomID)

	snap := e.Snapshot()
	assert.Equal(t, RoomOccupied, snap.Rooms[0].Status)
	assert.Equal(t, guest.ID, snap.Rooms[0].OccupantID)
	assert.Equal(t, int64(502), snap.Balance, "check-in reward lands immediately")
}

func TestSpawnGuest_UnknownClassRejected(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())

	_, err := e.SpawnGuest("royalty")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStayTimer_ForcesCheckout(t *testing.T) {
	cfg := testConfig()
	noRequests(&cfg)
	notifier := &recordingNotifier{}
	e, mc := newTestEngine(t, cfg, WithNotifier(notifier))

	_, err := e.SpawnGuest(ClassRegular)
	require.NoError(t, err)

	mc.Advance(cfg.Stay + 100*time.Millisecond)
	snap := e.Snapshot()
	assert.Equal(t, RoomDirty, snap.Rooms[0].Status)
	assert.Zero(t, snap.Rooms[0].OccupantID)
	assert.Equal(t, int64(512), snap.Balance, "checkout payout landed")
	assert.Contains(t, notifier.events, "room_dirty")

	mc.Advance(cfg.Exit)
	snap = e.Snapshot()
	assert.Empty(t, snap.Guests, "guest is gone after the exit delay")
	assert.Equal(t, int64(1), snap.GuestsServed)
}

func TestCheckout_ClassMultipliers(t *testing.T) {
	testCases := []struct {
		class  GuestClass
		payout int64 // checkout base 10 times the class multiplier
	}{
		{class: ClassVIP, payout: 20},
		{class: ClassRegular, payout: 10},
		{class: ClassBudget, payout: 6},
	}

	for _, tc := range testCases {
		t.Run(string(tc.class), func(t *testing.T) {
			cfg := testConfig()
			noRequests(&cfg)
			e, mc := newTestEngine(t, cfg)

			_, err := e.SpawnGuest(tc.class)
			require.NoError(t, err)
			before := e.Snapshot().Balance

			mc.Advance(cfg.Stay)
			assert.Equal(t, before+tc.payout, e.Snapshot().Balance)
		})
	}
}

func TestQueue_VIPSeatedFirstAfterCleaning(t *testing.T) {
	cfg := testConfig()
	cfg.Rooms = 1
	noRequests(&cfg)
	e, mc := newTestEngine(t, cfg)

	first, err := e.SpawnGuest(ClassRegular)
	require.NoError(t, err)
	assert.Equal(t, GuestInRoom, first.State)

	queuedRegular, err := e.SpawnGuest(ClassRegular)
	require.NoError(t, err)
	assert.Equal(t, GuestQueued, queuedRegular.State)

	vip, err := e.SpawnGuest(ClassVIP)
	require.NoError(t, err)
	assert.Equal(t, GuestQueued, vip.State)
	assert.Equal(t, 2, e.Snapshot().QueueLen)

	// The first guest checks out; the room turns dirty, nobody is seated.
	mc.Advance(cfg.Stay + 100*time.Millisecond)
	assert.Equal(t, RoomDirty, e.Snapshot().Rooms[0].Status)
	assert.Equal(t, 2, e.Snapshot().QueueLen)

	_, err = e.HireCleaner()
	require.NoError(t, err)
	require.NoError(t, e.RequestClean(1))
	assert.Equal(t, RoomCleaning, e.Snapshot().Rooms[0].Status)

	mc.Advance(cfg.CleanTravel + cfg.CleanTime)
	snap := e.Snapshot()
	assert.Equal(t, RoomOccupied, snap.Rooms[0].Status)
	assert.Equal(t, vip.ID, snap.Rooms[0].OccupantID, "VIP jumps the earlier regular")
	assert.Equal(t, 1, snap.QueueLen)
}

func TestRequestClean_CapacityGate(t *testing.T) {
	cfg := testConfig()
	e, _ := newTestEngine(t, cfg)

	e.rooms.Get(1).Status = RoomDirty
	e.rooms.Get(2).Status = RoomDirty

	err := e.RequestClean(1)
	assert.ErrorIs(t, err, ErrInvalidTransition, "no cleaner hired")

	_, err = e.HireCleaner()
	require.NoError(t, err)
	require.NoError(t, e.RequestClean(1))

	err = e.RequestClean(2)
	assert.ErrorIs(t, err, ErrInvalidTransition, "single cleaner already busy")

	err = e.RequestClean(3)
	assert.ErrorIs(t, err, ErrInvalidTransition, "capacity check also rejects non-dirty rooms")
}

func TestManualDelivery_FullCycle(t *testing.T) {
	cfg := testConfig()
	oneJuiceRequest(&cfg)
	e, mc := newTestEngine(t, cfg)

	_, err := e.SpawnGuest(ClassRegular)
	require.NoError(t, err)
	assert.Equal(t, int64(503), e.Snapshot().Balance, "check-in plus one rolled request")

	mc.Advance(1100 * time.Millisecond)
	snap := e.Snapshot()
	require.Len(t, snap.Guests, 1)
	assert.Equal(t, GuestRequesting, snap.Guests[0].State)
	assert.Equal(t, ItemKind("juice"), snap.Guests[0].Current)

	require.NoError(t, e.HireBellboy())
	require.NoError(t, e.SelectMenuItem("juice"))
	require.NoError(t, e.AttemptDelivery(1))
	assert.Equal(t, BellboyToPickup, e.Snapshot().Bellboy.Phase)
	assert.Empty(t, e.Snapshot().SelectedItem, "selection is consumed")

	mc.Advance(cfg.DeliveryTravel)
	assert.Equal(t, BellboyToGuest, e.Snapshot().Bellboy.Phase)

	mc.Advance(cfg.DeliveryTravel)
	snap = e.Snapshot()
	require.Len(t, snap.Guests, 1)
	assert.Equal(t, GuestInRoom, snap.Guests[0].State)
	assert.Equal(t, int64(5), snap.Guests[0].Bonus)
	assert.Equal(t, BellboyReturning, snap.Bellboy.Phase)
	assert.Equal(t, int64(308), snap.Balance, "item price awarded on hand-off")

	// No requests left, so pacing runs out into checkout.
	mc.Advance(cfg.Pacing)
	assert.Equal(t, int64(323), e.Snapshot().Balance, "payout includes the request bonus")
	assert.Equal(t, RoomDirty, e.Snapshot().Rooms[0].Status)

	mc.Advance(2 * time.Second)
	snap = e.Snapshot()
	assert.Empty(t, snap.Guests)
	assert.Equal(t, int64(1), snap.GuestsServed)
	assert.Equal(t, BellboyIdle, snap.Bellboy.Phase)
}

func TestManualDelivery_Preconditions(t *testing.T) {
	cfg := testConfig()
	noRequests(&cfg)
	e, _ := newTestEngine(t, cfg)

	_, err := e.SpawnGuest(ClassRegular)
	require.NoError(t, err)

	assert.ErrorIs(t, e.AttemptDelivery(1), ErrInvalidTransition, "nobody hired")

	require.NoError(t, e.HireBellboy())
	assert.ErrorIs(t, e.AttemptDelivery(1), ErrInvalidTransition, "nothing selected")

	require.NoError(t, e.SelectMenuItem("juice"))
	assert.ErrorIs(t, e.AttemptDelivery(2), ErrInvalidTransition, "room without a guest")
	assert.ErrorIs(t, e.AttemptDelivery(1), ErrInvalidTransition, "guest has no open request")

	// Force a mismatching open request.
	g := e.guests[1]
	g.State = GuestRequesting
	g.Current = "chips"
	g.Deadline = e.clock.Now().Add(time.Hour)
	assert.ErrorIs(t, e.AttemptDelivery(1), ErrInvalidTransition, "item mismatch")
}

func TestPatienceTimeout_AngryGuestHalvedPayout(t *testing.T) {
	cfg := testConfig()
	oneJuiceRequest(&cfg)
	notifier := &recordingNotifier{}
	e, mc := newTestEngine(t, cfg, WithNotifier(notifier))

	_, err := e.SpawnGuest(ClassRegular)
	require.NoError(t, err)

	// Request opens at 1s, patience runs out 12s later. Nobody delivers.
	mc.Advance(13100 * time.Millisecond)
	snap := e.Snapshot()
	require.Len(t, snap.Guests, 1)
	assert.True(t, snap.Guests[0].Angry)
	assert.Empty(t, snap.Guests[0].Current)
	assert.Contains(t, notifier.events, "guest_angry")

	// After the grace period the guest, with nothing left to order, pays a
	// halved base and leaves.
	mc.Advance(cfg.Grace + cfg.Exit + time.Second)
	snap = e.Snapshot()
	assert.Empty(t, snap.Guests)
	assert.Equal(t, int64(508), snap.Balance, "503 after check-in plus a halved payout of 5")
}

func TestLateDelivery_DroppedWithoutReward(t *testing.T) {
	cfg := testConfig()
	oneJuiceRequest(&cfg)
	e, mc := newTestEngine(t, cfg)

	_, err := e.SpawnGuest(ClassRegular)
	require.NoError(t, err)
	require.NoError(t, e.HireBellboy())

	mc.Advance(1100 * time.Millisecond)
	require.NoError(t, e.SelectMenuItem("juice"))
	require.NoError(t, e.AttemptDelivery(1))

	// Stretch the walk past the deadline.
	g := e.guests[1]
	g.Deadline = e.clock.Now().Add(time.Second)

	balance := e.Snapshot().Balance
	mc.Advance(2 * cfg.DeliveryTravel)
	snap := e.Snapshot()
	assert.Equal(t, balance, snap.Balance, "late hand-off earns nothing")
	require.Len(t, snap.Guests, 1)
	assert.Zero(t, snap.Guests[0].Bonus)
	assert.True(t, snap.Guests[0].Angry, "the tick expired the request meanwhile")
}

func TestOrderThrottle_SecondGuestDeferred(t *testing.T) {
	cfg := testConfig()
	oneJuiceRequest(&cfg)
	cfg.Rooms = 2
	cfg.MaxActiveOrders = 1
	cfg.OrderRetryMin = time.Second
	cfg.OrderRetryMax = time.Second
	e, mc := newTestEngine(t, cfg)

	_, err := e.SpawnGuest(ClassRegular)
	require.NoError(t, err)
	_, err = e.SpawnGuest(ClassRegular)
	require.NoError(t, err)

	mc.Advance(1100 * time.Millisecond)
	snap := e.Snapshot()
	require.Len(t, snap.Guests, 2)
	assert.Equal(t, GuestRequesting, snap.Guests[0].State)
	assert.Equal(t, GuestInRoom, snap.Guests[1].State, "throttle holds the second order back")
	assert.Equal(t, 1, snap.Guests[1].Pending)
	assert.Equal(t, 1, snap.ActiveOrders)
}

func TestAutoDelivery_ServesWithoutOperator(t *testing.T) {
	cfg := testConfig()
	oneJuiceRequest(&cfg)
	cfg.AutoDelivery = true
	e, mc := newTestEngine(t, cfg)

	require.NoError(t, e.HireBellboy())
	_, err := e.SpawnGuest(ClassRegular)
	require.NoError(t, err)

	mc.Advance(6 * time.Second)
	snap := e.Snapshot()
	assert.Empty(t, snap.Guests, "request served and stay settled with no manual commands")
	assert.Equal(t, int64(1), snap.GuestsServed)
	assert.Equal(t, int64(323), snap.Balance)
}

func TestFunds_ChargesAreAtomic(t *testing.T) {
	cfg := testConfig()
	cfg.StartingBalance = 0
	config.ApplySimDefaults(&cfg)
	e, _ := newTestEngine(t, cfg)

	_, err := e.AddRoom()
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.ErrorIs(t, e.HireBellboy(), ErrInsufficientFunds)
	_, err = e.HireCleaner()
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Zero(t, e.Snapshot().Balance, "failed charges never partially debit")

	balance, err := e.Deposit(80)
	require.NoError(t, err)
	assert.Equal(t, int64(80), balance)

	count, err := e.HireCleaner()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The second cleaner costs double the base.
	_, err = e.HireCleaner()
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestDeposit_RejectsNonPositive(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())

	_, err := e.Deposit(0)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = e.Deposit(-5)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, int64(500), e.Snapshot().Balance)
}

func TestResetAll_InvalidatesOutstandingTimers(t *testing.T) {
	cfg := testConfig()
	noRequests(&cfg)
	e, mc := newTestEngine(t, cfg)

	_, err := e.SpawnGuest(ClassRegular)
	require.NoError(t, err)
	require.NoError(t, e.HireBellboy())

	mc.Advance(5 * time.Second)
	e.ResetAll()

	// The stale stay timer fires into the void.
	mc.Advance(2 * cfg.Stay)
	snap := e.Snapshot()
	assert.Empty(t, snap.Guests)
	assert.Equal(t, int64(500), snap.Balance)
	assert.False(t, snap.Bellboy.Hired)
	assert.Equal(t, int64(1), snap.NextGuestID)
	for _, room := range snap.Rooms {
		assert.Equal(t, RoomFree, room.Status)
	}
}

func TestRestore_NormalizesPersistedState(t *testing.T) {
	cfg := testConfig()
	noRequests(&cfg)

	saved := Snapshot{
		Balance: 321,
		Rooms: []RoomView{
			{ID: 1, Status: RoomOccupied, OccupantID: 7},
			{ID: 2, Status: RoomCleaning},
			{ID: 3, Status: RoomDirty},
			{ID: 4, Status: RoomFree},
		},
		QueueLen:     2,
		Cleaners:     2,
		Bellboy:      BellboyView{Hired: true},
		GuestsServed: 5,
		NextGuestID:  3,
	}

	e, _ := newTestEngine(t, cfg, WithSnapshot(saved))

	snap := e.Snapshot()
	assert.Equal(t, RoomOccupied, snap.Rooms[0].Status)
	assert.Equal(t, int64(7), snap.Rooms[0].OccupantID)
	assert.Equal(t, RoomDirty, snap.Rooms[1].Status, "mid-cleaning rooms come back dirty")
	assert.Equal(t, RoomDirty, snap.Rooms[2].Status)

	// The free room absorbs one queued guest on startup.
	assert.Equal(t, RoomOccupied, snap.Rooms[3].Status)
	assert.Equal(t, int64(8), snap.Rooms[3].OccupantID, "queued guests re-enter after the highest known id")
	assert.Equal(t, 1, snap.QueueLen)

	assert.Equal(t, int64(323), snap.Balance, "restored balance plus one check-in")
	assert.Equal(t, 2, snap.Cleaners)
	assert.True(t, snap.Bellboy.Hired)
	assert.Equal(t, BellboyIdle, snap.Bellboy.Phase)
	assert.Equal(t, int64(5), snap.GuestsServed)
	assert.Equal(t, int64(10), snap.NextGuestID)
}

func TestRestore_MalformedFallsBackToDefaults(t *testing.T) {
	cfg := testConfig()
	noRequests(&cfg)

	saved := Snapshot{
		Balance: -50,
		Rooms: []RoomView{
			{ID: 1, Status: "haunted"},
			{ID: 2, Status: RoomOccupied}, // occupied without an occupant
		},
		QueueLen:    0,
		NextGuestID: -9,
	}

	e, _ := newTestEngine(t, cfg, WithSnapshot(saved))

	snap := e.Snapshot()
	assert.Equal(t, int64(500), snap.Balance, "non-positive balance falls back to the starting balance")
	assert.Len(t, snap.Rooms, 4, "room count never drops below the configured minimum")
	assert.Equal(t, RoomFree, snap.Rooms[0].Status, "unknown status lands on free")
	assert.Equal(t, RoomDirty, snap.Rooms[1].Status, "occupied without occupant lands on dirty")
	assert.Equal(t, int64(1), snap.NextGuestID)
}
