package sim

import "fmt"

// RoomStatus is the closed set of room states. The only legal cycle is
// Free -> Occupied -> Dirty -> Cleaning -> Free; skip transitions are
// rejected, never coerced.
type RoomStatus string

const (
	RoomFree     RoomStatus = "free"
	RoomOccupied RoomStatus = "occupied"
	RoomDirty    RoomStatus = "dirty"
	RoomCleaning RoomStatus = "cleaning"
)

// Room is one hotel room. OccupantID is non-zero iff Status is RoomOccupied.
type Room struct {
	ID         int
	Status     RoomStatus
	OccupantID int64
}

// Registry owns the fixed collection of rooms. Rooms are created at startup
// or through AddRoom and live until a full reset.
type Registry struct {
	rooms []*Room
}

// NewRegistry creates n rooms, all Free, with ids 1..n.
func NewRegistry(n int) *Registry {
	r := &Registry{}
	for i := 0; i < n; i++ {
		r.AddRoom()
	}
	return r
}

// AddRoom appends a new Free room and returns it.
func (r *Registry) AddRoom() *Room {
	room := &Room{ID: len(r.rooms) + 1, Status: RoomFree}
	r.rooms = append(r.rooms, room)
	return room
}

// Get returns the room with the given id, or nil.
func (r *Registry) Get(id int) *Room {
	if id < 1 || id > len(r.rooms) {
		return nil
	}
	return r.rooms[id-1]
}

// FindFree returns the first Free room in a deterministic left-to-right scan,
// or nil when the hotel is full.
func (r *Registry) FindFree() *Room {
	for _, room := range r.rooms {
		if room.Status == RoomFree {
			return room
		}
	}
	return nil
}

// Occupy seats a guest in a Free room.
func (r *Registry) Occupy(id int, guestID int64) error {
	room := r.Get(id)
	if room == nil {
		return fmt.Errorf("room %d does not exist: %w", id, ErrInvalidTransition)
	}
	if room.Status != RoomFree {
		return fmt.Errorf("room %d is %s, not free: %w", id, room.Status, ErrInvalidTransition)
	}
	room.Status = RoomOccupied
	room.OccupantID = guestID
	return nil
}

// MarkDirty clears the occupant of an Occupied room and marks it Dirty.
func (r *Registry) MarkDirty(id int) error {
	room := r.Get(id)
	if room == nil {
		return fmt.Errorf("room %d does not exist: %w", id, ErrInvalidTransition)
	}
	if room.Status != RoomOccupied {
		return fmt.Errorf("room %d is %s, not occupied: %w", id, room.Status, ErrInvalidTransition)
	}
	room.Status = RoomDirty
	room.OccupantID = 0
	return nil
}

// StartCleaning moves a Dirty room to Cleaning. Cleaning-pool capacity is the
// caller's concern; the registry only guards the status machine.
func (r *Registry) StartCleaning(id int) error {
	room := r.Get(id)
	if room == nil {
		return fmt.Errorf("room %d does not exist: %w", id, ErrInvalidTransition)
	}
	if room.Status != RoomDirty {
		return fmt.Errorf("room %d is %s, not dirty: %w", id, room.Status, ErrInvalidTransition)
	}
	room.Status = RoomCleaning
	return nil
}

// FinishCleaning returns a Cleaning room to Free.
func (r *Registry) FinishCleaning(id int) error {
	room := r.Get(id)
	if room == nil {
		return fmt.Errorf("room %d does not exist: %w", id, ErrInvalidTransition)
	}
	if room.Status != RoomCleaning {
		return fmt.Errorf("room %d is %s, not cleaning: %w", id, room.Status, ErrInvalidTransition)
	}
	room.Status = RoomFree
	return nil
}

// Rooms returns the rooms in id order. Callers must not mutate through it.
func (r *Registry) Rooms() []*Room { return r.rooms }

// Len returns the room count.
func (r *Registry) Len() int { return len(r.rooms) }
