package model

import "time"

// TicketWatch links a push subscription to a wash ticket it wants to hear
// about. A subscription may watch several tickets and a ticket may be watched
// by several subscriptions.
type TicketWatch struct {
	Ticket    string    `gorm:"primaryKey;size:64"`
	Endpoint  string    `gorm:"primaryKey;index"`
	CreatedAt time.Time `gorm:"not null"`
}
