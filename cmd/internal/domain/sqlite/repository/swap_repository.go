package repository

import (
	"errors"

	"gorm.io/gorm"

	"slotswapper/cmd/internal/domain/entity"
)

type DefaultSwapRequestRepository struct {
	db *gorm.DB
}

func NewSwapRequestRepository(db *gorm.DB) *DefaultSwapRequestRepository {
	return &DefaultSwapRequestRepository{db: db}
}

func (r *DefaultSwapRequestRepository) Create(req *entity.SwapRequest) error {
	return r.db.Create(req).Error
}

func (r *DefaultSwapRequestRepository) FindByID(id int) (*entity.SwapRequest, error) {
	var req entity.SwapRequest
	err := r.db.
		Preload("RequesterSlot").
		Preload("TargetSlot").
		Preload("Requester").
		Preload("TargetUser").
		First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &req, err
}

func (r *DefaultSwapRequestRepository) FindByRequesterID(userID int) ([]*entity.SwapRequest, error) {
	return r.findEnriched("requester_id = ?", userID)
}

func (r *DefaultSwapRequestRepository) FindByTargetUserID(userID int) ([]*entity.SwapRequest, error) {
	return r.findEnriched("target_user_id = ?", userID)
}

func (r *DefaultSwapRequestRepository) findEnriched(query string, userID int) ([]*entity.SwapRequest, error) {
	var reqs []*entity.SwapRequest
	err := r.db.
		Preload("RequesterSlot").
		Preload("TargetSlot").
		Preload("Requester").
		Preload("TargetUser").
		Where(query, userID).
		Order("created_at desc").
		Find(&reqs).Error
	return reqs, err
}

// CompareAndSetStatus finalizes a PENDING request. Returns false when a
// concurrent responder already resolved it.
func (r *DefaultSwapRequestRepository) CompareAndSetStatus(id int, next entity.SwapStatus, now int64) (bool, error) {
	res := r.db.Model(&entity.SwapRequest{}).
		Where("id = ? AND status = ?", id, entity.SwapPending).
		Updates(map[string]any{"status": next, "updated_at": now})
	return res.RowsAffected == 1, res.Error
}
