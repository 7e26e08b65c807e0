package entity

type SlotStatus string

const (
	SlotOccupied     SlotStatus = "OCCUPIED"
	SlotExchangeable SlotStatus = "EXCHANGEABLE"
	SlotPendingSwap  SlotStatus = "PENDING_SWAP"
)

// OwnerAssignable reports whether a slot owner may set this status directly.
// PENDING_SWAP is reserved for the swap engine.
func (s SlotStatus) OwnerAssignable() bool {
	return s == SlotOccupied || s == SlotExchangeable
}

type Slot struct {
	ID        int        `gorm:"primaryKey"`
	Title     string     `gorm:"not null"`
	BeginsAt  int64      `gorm:"not null"`
	EndsAt    int64      `gorm:"not null"`
	Status    SlotStatus `gorm:"not null"`
	UserID    int        `gorm:"not null"` // References: users(id)
	CreatedAt int64      `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt int64      `gorm:"not null;autoUpdateTime:milli"`

	// Relations
	Owner User `gorm:"foreignKey:UserID;references:ID"`
}
