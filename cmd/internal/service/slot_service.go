package service

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"

	"slotswapper/cmd/internal/domain/entity"
	"slotswapper/cmd/internal/domain/sqlite/repository"
	"slotswapper/cmd/internal/utils"
	"slotswapper/cmd/internal/utils/apierror"
)

type SlotRepository interface {
	FindByID(id int) (*entity.Slot, error)
	FindByUserID(userID int) ([]*entity.Slot, error)
	FindSwappable(excludeUserID int) ([]*entity.Slot, error)
	Save(slot *entity.Slot) error
}

type SlotRequest struct {
	Title    string `json:"title" validate:"required,max=128"`
	BeginsAt string `json:"start_time" validate:"required,iso8601"`
	EndsAt   string `json:"end_time" validate:"required,iso8601"`
}

type SlotUpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,max=128"`
	BeginsAt *string `json:"start_time" validate:"omitempty,iso8601"`
	EndsAt   *string `json:"end_time" validate:"omitempty,iso8601"`
	Status   *string `json:"status"`
}

type SlotResponse struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	BeginsAt  string `json:"start_time"`
	EndsAt    string `json:"end_time"`
	Status    string `json:"status"`
	UserID    int    `json:"user_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type SwappableSlotResponse struct {
	SlotResponse
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}

type DefaultSlotService struct {
	SlotRepo SlotRepository
	UserRepo UserRepository
	Tx       repository.TxManager
	Validate *validator.Validate
}

func NewSlotService(slotRepo SlotRepository, userRepo UserRepository, tx repository.TxManager, validate *validator.Validate) *DefaultSlotService {
	return &DefaultSlotService{SlotRepo: slotRepo, UserRepo: userRepo, Tx: tx, Validate: validate}
}

func (s *DefaultSlotService) GetSlots(subId string) ([]*SlotResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	slots, err := s.SlotRepo.FindByUserID(caller.ID)
	if err != nil {
		log.Errorf("failed to find slots for user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}

	response := make([]*SlotResponse, len(slots))
	for i, slot := range slots {
		response[i] = toSlotResponse(slot)
	}
	return response, nil
}

func (s *DefaultSlotService) CreateSlot(req *SlotRequest, subId string) (*SlotResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	begin, err := utils.FromEpoch(req.BeginsAt)
	if err != nil {
		return nil, apierror.MalformedBodyError
	}

	end, err := utils.FromEpoch(req.EndsAt)
	if err != nil {
		return nil, apierror.MalformedBodyError
	}

	if end <= begin {
		return nil, apierror.EndBeforeStartError
	}

	now := utils.NowUTC()
	slot := &entity.Slot{
		Title:     req.Title,
		BeginsAt:  begin,
		EndsAt:    end,
		Status:    entity.SlotOccupied,
		UserID:    caller.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.SlotRepo.Save(slot); err != nil {
		log.Errorf("failed to save slot: %v", err)
		return nil, apierror.InternalServerError
	}
	return toSlotResponse(slot), nil
}

func (s *DefaultSlotService) GetSlot(id int, subId string) (*SlotResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	slot, err := s.SlotRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch slot by id %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	// Slots are only visible to their owner through this endpoint.
	if slot == nil || slot.UserID != caller.ID {
		return nil, apierror.SlotNotFoundError
	}
	return toSlotResponse(slot), nil
}

func (s *DefaultSlotService) UpdateSlot(id int, req *SlotUpdateRequest, subId string) (*SlotResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var updated *entity.Slot
	err := s.Tx.WithTx(func(r repository.TxRepositories) error {
		slot, err := loadOwnedSlot(r, id, caller.ID)
		if err != nil {
			return err
		}

		if apierr := applySlotUpdate(slot, req); apierr != nil {
			return apierr
		}

		slot.UpdatedAt = utils.NowUTC()

		// Guarded write, same discipline as the swap engine: a swap
		// request committing after the read above owns the slot now, and
		// the edit must not clobber its PENDING_SWAP.
		saved, err := r.Slots.UpdateUnlessPending(slot)
		if err != nil {
			return err
		}
		if !saved {
			return apierror.SlotLockedError
		}
		updated = slot
		return nil
	})
	if err != nil {
		return nil, asAPIError(err, "update slot")
	}
	return toSlotResponse(updated), nil
}

func (s *DefaultSlotService) DeleteSlot(id int, subId string) apierror.ErrorResponse {
	caller, apierr := resolveCaller(s.UserRepo, subId)
	if apierr != nil {
		return apierr
	}

	err := s.Tx.WithTx(func(r repository.TxRepositories) error {
		slot, err := loadOwnedSlot(r, id, caller.ID)
		if err != nil {
			return err
		}

		deleted, err := r.Slots.DeleteUnlessPending(slot.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return apierror.SlotLockedError
		}
		return nil
	})
	if err != nil {
		return asAPIError(err, "delete slot")
	}
	return nil
}

// loadOwnedSlot fetches a slot for mutation by its owner. Ownership and the
// PENDING_SWAP lock are checked here; the caller still needs a guarded write
// because the status can change after this read.
func loadOwnedSlot(r repository.TxRepositories, id, ownerId int) (*entity.Slot, error) {
	slot, err := r.Slots.FindByID(id)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, apierror.SlotNotFoundError
	}
	if slot.UserID != ownerId {
		return nil, apierror.SlotNotOwnedError
	}
	if slot.Status == entity.SlotPendingSwap {
		return nil, apierror.SlotLockedError
	}
	return slot, nil
}

func applySlotUpdate(slot *entity.Slot, req *SlotUpdateRequest) apierror.ErrorResponse {
	if req.Title != nil {
		slot.Title = *req.Title
	}

	if req.BeginsAt != nil {
		begin, err := utils.FromEpoch(*req.BeginsAt)
		if err != nil {
			return apierror.MalformedBodyError
		}
		slot.BeginsAt = begin
	}

	if req.EndsAt != nil {
		end, err := utils.FromEpoch(*req.EndsAt)
		if err != nil {
			return apierror.MalformedBodyError
		}
		slot.EndsAt = end
	}

	if slot.EndsAt <= slot.BeginsAt {
		return apierror.EndBeforeStartError
	}

	if req.Status != nil {
		status := entity.SlotStatus(*req.Status)
		// PENDING_SWAP belongs to the swap engine alone.
		if !status.OwnerAssignable() {
			return apierror.StatusNotOwnerSetable
		}
		slot.Status = status
	}
	return nil
}

func toSlotResponse(slot *entity.Slot) *SlotResponse {
	return &SlotResponse{
		ID:        slot.ID,
		Title:     slot.Title,
		Status:    string(slot.Status),
		UserID:    slot.UserID,
		BeginsAt:  utils.FormatEpoch(slot.BeginsAt),
		EndsAt:    utils.FormatEpoch(slot.EndsAt),
		CreatedAt: utils.FormatEpoch(slot.CreatedAt),
		UpdatedAt: utils.FormatEpoch(slot.UpdatedAt),
	}
}

func toSwappableSlotResponse(slot *entity.Slot) *SwappableSlotResponse {
	return &SwappableSlotResponse{
		SlotResponse: *toSlotResponse(slot),
		OwnerName:    slot.Owner.Username,
		OwnerEmail:   slot.Owner.Email,
	}
}
