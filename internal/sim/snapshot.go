package sim

import "time"

// Snapshot is the read-only view of the whole simulation. The rendering
// layer, the HTTP API, and the persistence layer all consume it; none of them
// participate in the state machine. The same shape is handed back on restore.
type Snapshot struct {
	Balance      int64       `json:"balance"`
	Rooms        []RoomView  `json:"rooms"`
	Guests       []GuestView `json:"guests"`
	QueueLen     int         `json:"queue_len"`
	Bellboy      BellboyView `json:"bellboy"`
	Cleaners     int         `json:"cleaners"`
	CleaningBusy int         `json:"cleaning_in_progress"`
	SelectedItem ItemKind    `json:"selected_item,omitempty"`
	ActiveOrders int         `json:"active_orders"`
	GuestsServed int64       `json:"guests_served"`
	NextGuestID  int64       `json:"next_guest_id"`
}

// RoomView mirrors a Room.
type RoomView struct {
	ID         int        `json:"id"`
	Status     RoomStatus `json:"status"`
	OccupantID int64      `json:"occupant_id,omitempty"`
}

// GuestView mirrors a Guest. Deadline is zero when no request is active.
type GuestView struct {
	ID       int64      `json:"id"`
	Class    GuestClass `json:"class"`
	State    GuestState `json:"state"`
	RoomID   int        `json:"room_id,omitempty"`
	Current  ItemKind   `json:"current_request,omitempty"`
	Deadline time.Time  `json:"deadline,omitempty"`
	Pending  int        `json:"pending_requests"`
	Bonus    int64      `json:"bonus"`
	Angry    bool       `json:"angry"`
}

// BellboyView mirrors the delivery worker.
type BellboyView struct {
	Hired  bool         `json:"hired"`
	Phase  BellboyPhase `json:"phase"`
	RoomID int          `json:"room_id,omitempty"`
	Item   ItemKind     `json:"item,omitempty"`
}

// StayRecord is the archived outcome of one completed stay, appended to the
// durable history at checkout.
type StayRecord struct {
	GuestID        int64
	RoomID         int
	Class          GuestClass
	CheckIn        time.Time
	CheckOut       time.Time
	Payout         int64
	Angry          bool
	RequestsServed int
	RequestsMissed int
}

// Persister receives snapshots after every externally visible mutation plus
// one stay record per completed stay. Implementations must be non-blocking
// and must never call back into the engine.
type Persister interface {
	Persist(snap Snapshot)
	RecordStay(rec StayRecord)
}

// Notifier receives operator-facing events (a room turned dirty, a guest
// turned angry). Implementations must be non-blocking and must never call
// back into the engine.
type Notifier interface {
	Notify(event, message string)
}
