package model

import "time"

// PushSubscription holds one operator browser's web push subscription.
// Alerts are broadcast to every subscription.
type PushSubscription struct {
	Endpoint  string `gorm:"primaryKey"`
	P256DH    string `gorm:"column:p256dh;not null"`
	Auth      string `gorm:"not null"`
	CreatedAt time.Time
}
