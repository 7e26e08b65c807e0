package repository

import (
	"errors"

	"gorm.io/gorm"

	"slotswapper/cmd/internal/domain/entity"
)

type DefaultSlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *DefaultSlotRepository {
	return &DefaultSlotRepository{db: db}
}

func (s *DefaultSlotRepository) FindByID(id int) (*entity.Slot, error) {
	var slot entity.Slot
	err := s.db.Preload("Owner").First(&slot, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &slot, err
}

func (s *DefaultSlotRepository) FindByUserID(userID int) ([]*entity.Slot, error) {
	var slots []*entity.Slot
	err := s.db.Where("user_id = ?", userID).
		Order("begins_at asc").
		Find(&slots).Error
	return slots, err
}

// FindSwappable lists every EXCHANGEABLE slot belonging to someone other
// than the given user, the discovery feed for swap proposals.
func (s *DefaultSlotRepository) FindSwappable(excludeUserID int) ([]*entity.Slot, error) {
	var slots []*entity.Slot
	err := s.db.Preload("Owner").
		Where("status = ?", entity.SlotExchangeable).
		Where("user_id != ?", excludeUserID).
		Order("begins_at asc").
		Find(&slots).Error
	return slots, err
}

func (s *DefaultSlotRepository) Save(slot *entity.Slot) error {
	return s.db.Save(slot).Error
}

// UpdateUnlessPending persists an owner edit only while no swap holds the
// slot. When a swap request commits first the status is PENDING_SWAP, the
// write touches zero rows and false is returned.
func (s *DefaultSlotRepository) UpdateUnlessPending(slot *entity.Slot) (bool, error) {
	res := s.db.Model(&entity.Slot{}).
		Where("id = ? AND status != ?", slot.ID, entity.SlotPendingSwap).
		Updates(map[string]any{
			"title":      slot.Title,
			"begins_at":  slot.BeginsAt,
			"ends_at":    slot.EndsAt,
			"status":     slot.Status,
			"updated_at": slot.UpdatedAt,
		})
	return res.RowsAffected == 1, res.Error
}

// DeleteUnlessPending removes a slot unless it is PENDING_SWAP. A slot
// referenced by a pending request must survive until the swap resolves.
func (s *DefaultSlotRepository) DeleteUnlessPending(id int) (bool, error) {
	res := s.db.Where("status != ?", entity.SlotPendingSwap).
		Delete(&entity.Slot{}, id)
	return res.RowsAffected == 1, res.Error
}

// CompareAndSetStatus flips the slot's status only if it still holds the
// expected one. Returns false when another transaction got there first.
func (s *DefaultSlotRepository) CompareAndSetStatus(id int, expected, next entity.SlotStatus, now int64) (bool, error) {
	res := s.db.Model(&entity.Slot{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]any{"status": next, "updated_at": now})
	return res.RowsAffected == 1, res.Error
}

// TransferOwnership hands a PENDING_SWAP slot to a new owner and marks it
// OCCUPIED. The status guard keeps an already-resolved swap from being
// applied twice.
func (s *DefaultSlotRepository) TransferOwnership(id, newOwnerID int, now int64) (bool, error) {
	res := s.db.Model(&entity.Slot{}).
		Where("id = ? AND status = ?", id, entity.SlotPendingSwap).
		Updates(map[string]any{
			"user_id":    newOwnerID,
			"status":     entity.SlotOccupied,
			"updated_at": now,
		})
	return res.RowsAffected == 1, res.Error
}
