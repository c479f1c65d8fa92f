package sim

import "time"

// GuestState tracks a guest through its stay. The full path is
// Spawned -> AtReception -> (Queued <-> seated) -> InRoom -> Requesting* ->
// Paying -> Exiting -> Done; Requesting repeats once per rolled request, and
// a guest sits in InRoom between requests.
type GuestState string

const (
	GuestSpawned     GuestState = "spawned"
	GuestAtReception GuestState = "at_reception"
	GuestQueued      GuestState = "queued"
	GuestInRoom      GuestState = "in_room"
	GuestRequesting  GuestState = "requesting"
	GuestPaying      GuestState = "paying"
	GuestExiting     GuestState = "exiting"
	GuestDone        GuestState = "done"
)

// GuestClass affects the payout and patience multipliers.
type GuestClass string

const (
	ClassVIP     GuestClass = "vip"
	ClassRegular GuestClass = "regular"
	ClassBudget  GuestClass = "budget"
)

// Guest is one hotel guest. Guests are created on spawn and removed from all
// collections on reaching GuestDone.
type Guest struct {
	ID    int64
	Class GuestClass
	State GuestState

	RoomID int // 0 while not seated

	Pending     []ItemKind // rolled requests not yet started
	Current     ItemKind   // "" when no request is active
	Deadline    time.Time  // patience deadline of the current request
	RequestedAt time.Time  // when the current request opened

	Bonus int64 // accumulated request bonuses
	Angry bool  // sticky once a request times out

	CheckedInAt time.Time
	Served      int // requests fulfilled
	Missed      int // requests timed out or abandoned
}

// requesting reports whether the guest has an active request.
func (g *Guest) requesting() bool {
	return g.State == GuestRequesting && g.Current != ""
}
