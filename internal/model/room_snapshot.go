package model

import "time"

// RoomSnapshot is one room's persisted status. Timers are never persisted:
// a room saved mid-cleaning is normalized back to dirty on restore.
type RoomSnapshot struct {
	ID         int    `gorm:"primaryKey"`
	Status     string `gorm:"size:16;not null"`
	OccupantID int64  `gorm:"not null"`
	UpdatedAt  time.Time
}
