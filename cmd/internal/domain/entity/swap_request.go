package entity

type SwapStatus string

const (
	SwapPending  SwapStatus = "PENDING"
	SwapAccepted SwapStatus = "ACCEPTED"
	SwapRejected SwapStatus = "REJECTED"
)

// SwapRequest links two slots owned by two different users. Requester and
// target ids are frozen at creation time; only Status and UpdatedAt change
// afterwards, and only once (PENDING is the sole non-terminal status).
type SwapRequest struct {
	ID              int        `gorm:"primaryKey"`
	RequesterSlotID int        `gorm:"not null"` // References: slots(id)
	TargetSlotID    int        `gorm:"not null"` // References: slots(id)
	RequesterID     int        `gorm:"not null"` // References: users(id)
	TargetUserID    int        `gorm:"not null"` // References: users(id)
	Status          SwapStatus `gorm:"not null"`
	CreatedAt       int64      `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt       int64      `gorm:"not null;autoUpdateTime:milli"`

	// Relations
	RequesterSlot Slot `gorm:"foreignKey:RequesterSlotID;references:ID"`
	TargetSlot    Slot `gorm:"foreignKey:TargetSlotID;references:ID"`
	Requester     User `gorm:"foreignKey:RequesterID;references:ID"`
	TargetUser    User `gorm:"foreignKey:TargetUserID;references:ID"`
}
