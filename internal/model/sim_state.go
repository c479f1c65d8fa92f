package model

import "time"

// SimState is the single-row scalar snapshot of the simulation: the balance,
// the staff roster, and the counters. Written after every externally visible
// mutation, read once at startup.
type SimState struct {
	ID           int64 `gorm:"primaryKey"`
	Balance      int64 `gorm:"not null"`
	RoomCount    int   `gorm:"not null"`
	QueueLen     int   `gorm:"not null"`
	BellboyHired bool  `gorm:"not null"`
	Cleaners     int   `gorm:"not null"`
	GuestsServed int64 `gorm:"not null"`
	NextGuestID  int64 `gorm:"not null"`
	UpdatedAt    time.Time
}

// SimStateID is the fixed primary key of the snapshot row.
const SimStateID int64 = 1
