package model

import "time"

// StayRecord archives one completed stay (cold table). Appended at checkout,
// never updated.
type StayRecord struct {
	ID             int64     `gorm:"autoIncrement;primaryKey"`
	GuestID        int64     `gorm:"index;not null"`
	RoomID         int       `gorm:"not null"`
	Class          string    `gorm:"size:16;not null"`
	CheckIn        time.Time `gorm:"not null"`
	CheckOut       time.Time `gorm:"index;not null"`
	Payout         int64     `gorm:"not null"`
	Angry          bool      `gorm:"not null"`
	RequestsServed int       `gorm:"not null"`
	RequestsMissed int       `gorm:"not null"`
}
