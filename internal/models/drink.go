package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format of Drink.Date. Values in this layout
// sort lexicographically in chronological order.
const DateLayout = "2006-01-02"

// Drink is one logged beverage purchase.
type Drink struct {
	Base
	OwnerID string           `gorm:"type:uuid;not null;index:idx_drinks_owner_timestamp,priority:1" json:"owner_id"`
	Date    string           `gorm:"size:10;not null" json:"date"`
	Store   string           `gorm:"not null" json:"store"`
	Item    string           `gorm:"not null" json:"item"`
	Price   *decimal.Decimal `gorm:"type:decimal(20,4)" json:"price,omitempty"`
	Ice     string           `json:"ice"`
	Sugar   string           `json:"sugar"`
	Note    string           `json:"note"`

	// Timestamp is stamped by the server on every write and orders the
	// snapshot most-recent-first.
	Timestamp time.Time `gorm:"not null;index:idx_drinks_owner_timestamp,priority:2" json:"timestamp"`
}

// PriceOrZero returns the price, treating an absent price as zero.
func (d Drink) PriceOrZero() decimal.Decimal {
	if d.Price == nil {
		return decimal.Zero
	}
	return *d.Price
}
