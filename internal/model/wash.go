package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wash is a billed wash, written once when the bay enters billing.
type Wash struct {
	Ticket        string          `gorm:"primaryKey;size:36" json:"ticket"`
	PreWashByHand bool            `gorm:"not null" json:"pre_wash_by_hand"`
	HandDry       bool            `gorm:"not null" json:"hand_dry"`
	Waxing        bool            `gorm:"not null" json:"waxing"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	BilledAt      time.Time       `gorm:"not null;index" json:"billed_at"`
}
