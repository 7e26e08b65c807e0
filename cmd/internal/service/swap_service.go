package service

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"

	"slotswapper/cmd/internal/domain/entity"
	"slotswapper/cmd/internal/domain/sqlite/repository"
	"slotswapper/cmd/internal/utils"
	"slotswapper/cmd/internal/utils/apierror"
)

type SwapRequestRepository interface {
	FindByRequesterID(userID int) ([]*entity.SwapRequest, error)
	FindByTargetUserID(userID int) ([]*entity.SwapRequest, error)
}

type SwapRequestCreate struct {
	MySlotID    int `json:"my_slot_id" validate:"required"`
	TheirSlotID int `json:"their_slot_id" validate:"required"`
}

// Accepted is a pointer so an explicit `false` still passes `required`.
type SwapDecisionRequest struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

type SwapRequestResponse struct {
	ID              int    `json:"id"`
	RequesterSlotID int    `json:"requester_slot_id"`
	TargetSlotID    int    `json:"target_slot_id"`
	RequesterID     int    `json:"requester_id"`
	TargetUserID    int    `json:"target_user_id"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`

	RequesterSlotTitle string `json:"requester_slot_title"`
	RequesterSlotStart string `json:"requester_slot_start"`
	RequesterSlotEnd   string `json:"requester_slot_end"`
	TargetSlotTitle    string `json:"target_slot_title"`
	TargetSlotStart    string `json:"target_slot_start"`
	TargetSlotEnd      string `json:"target_slot_end"`
	RequesterName      string `json:"requester_name"`
	TargetUserName     string `json:"target_user_name"`
}

// DefaultSwapService owns the swap state machine. Every status or ownership
// transition of a slot pair runs through CreateSwapRequest or
// RespondToSwapRequest, inside a single transaction, guarded by
// compare-and-set writes so racing callers cannot apply the same transition
// twice.
type DefaultSwapService struct {
	UserRepo UserRepository
	SlotRepo SlotRepository
	SwapRepo SwapRequestRepository
	Tx       repository.TxManager
	Validate *validator.Validate
}

func NewSwapService(userRepo UserRepository, slotRepo SlotRepository, swapRepo SwapRequestRepository, tx repository.TxManager, validate *validator.Validate) *DefaultSwapService {
	return &DefaultSwapService{
		UserRepo: userRepo,
		SlotRepo: slotRepo,
		SwapRepo: swapRepo,
		Tx:       tx,
		Validate: validate,
	}
}

// CreateSwapRequest proposes exchanging the caller's slot for another user's
// slot. Both slots must be EXCHANGEABLE; on success both are flipped to
// PENDING_SWAP and a PENDING ledger entry is created, atomically.
func (s *DefaultSwapService) CreateSwapRequest(req *SwapRequestCreate, subId string) (*SwapRequestResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var response *SwapRequestResponse
	err := s.Tx.WithTx(func(r repository.TxRepositories) error {
		mySlot, err := r.Slots.FindByID(req.MySlotID)
		if err != nil {
			return err
		}
		if mySlot == nil || mySlot.UserID != caller.ID {
			return apierror.MySlotNotFoundError
		}
		if mySlot.Status != entity.SlotExchangeable {
			return apierror.MySlotNotExchangeableError
		}

		theirSlot, err := r.Slots.FindByID(req.TheirSlotID)
		if err != nil {
			return err
		}
		if theirSlot == nil {
			return apierror.TargetSlotNotFoundError
		}
		if theirSlot.UserID == caller.ID {
			return apierror.SelfSwapError
		}
		if theirSlot.Status != entity.SlotExchangeable {
			return apierror.TargetSlotNotExchangeableError
		}

		now := utils.NowUTC()

		// Compare-and-set rather than plain writes: a concurrent request
		// that consumed either slot first makes RowsAffected come back 0,
		// and the whole transaction rolls back.
		flipped, err := r.Slots.CompareAndSetStatus(mySlot.ID, entity.SlotExchangeable, entity.SlotPendingSwap, now)
		if err != nil {
			return err
		}
		if !flipped {
			return apierror.MySlotNotExchangeableError
		}

		flipped, err = r.Slots.CompareAndSetStatus(theirSlot.ID, entity.SlotExchangeable, entity.SlotPendingSwap, now)
		if err != nil {
			return err
		}
		if !flipped {
			return apierror.TargetSlotNotExchangeableError
		}

		swapReq := &entity.SwapRequest{
			RequesterSlotID: mySlot.ID,
			TargetSlotID:    theirSlot.ID,
			RequesterID:     caller.ID,
			TargetUserID:    theirSlot.UserID,
			Status:          entity.SwapPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := r.Swaps.Create(swapReq); err != nil {
			return err
		}

		mySlot.Status = entity.SlotPendingSwap
		theirSlot.Status = entity.SlotPendingSwap
		response = toSwapRequestResponse(swapReq, mySlot, theirSlot, caller.Username, theirSlot.Owner.Username)
		return nil
	})
	if err != nil {
		return nil, asAPIError(err, "create swap request")
	}
	return response, nil
}

// RespondToSwapRequest applies the target user's decision. Accepting
// exchanges the two slots' owners and sets both OCCUPIED; rejecting returns
// both to EXCHANGEABLE. Either way the ledger entry is finalized in the same
// transaction and can never be re-opened.
func (s *DefaultSwapService) RespondToSwapRequest(requestId int, accepted bool, subId string) (*SwapRequestResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	var response *SwapRequestResponse
	err := s.Tx.WithTx(func(r repository.TxRepositories) error {
		swapReq, err := r.Swaps.FindByID(requestId)
		if err != nil {
			return err
		}
		if swapReq == nil {
			return apierror.SwapRequestNotFoundError
		}
		if swapReq.TargetUserID != caller.ID {
			return apierror.SwapNotTargetUserError
		}
		if swapReq.Status != entity.SwapPending {
			return apierror.NewSwapAlreadyResolvedError(string(swapReq.Status))
		}

		now := utils.NowUTC()
		next := entity.SwapRejected
		if accepted {
			next = entity.SwapAccepted
		}

		resolved, err := r.Swaps.CompareAndSetStatus(swapReq.ID, next, now)
		if err != nil {
			return err
		}
		if !resolved {
			// A concurrent responder won; the request left PENDING between
			// our read and this write.
			return apierror.NewSwapAlreadyResolvedError(currentSwapStatus(r, swapReq.ID))
		}

		requesterSlot := swapReq.RequesterSlot
		targetSlot := swapReq.TargetSlot

		if accepted {
			if err := transferSlot(r, requesterSlot.ID, swapReq.TargetUserID, now); err != nil {
				return err
			}
			if err := transferSlot(r, targetSlot.ID, swapReq.RequesterID, now); err != nil {
				return err
			}
			requesterSlot.UserID = swapReq.TargetUserID
			targetSlot.UserID = swapReq.RequesterID
			requesterSlot.Status = entity.SlotOccupied
			targetSlot.Status = entity.SlotOccupied
		} else {
			if err := releaseSlot(r, requesterSlot.ID, now); err != nil {
				return err
			}
			if err := releaseSlot(r, targetSlot.ID, now); err != nil {
				return err
			}
			requesterSlot.Status = entity.SlotExchangeable
			targetSlot.Status = entity.SlotExchangeable
		}

		swapReq.Status = next
		swapReq.UpdatedAt = now
		response = toSwapRequestResponse(swapReq, &requesterSlot, &targetSlot, swapReq.Requester.Username, swapReq.TargetUser.Username)
		return nil
	})
	if err != nil {
		return nil, asAPIError(err, "respond to swap request")
	}
	return response, nil
}

func (s *DefaultSwapService) GetSwappableSlots(subId string) ([]*SwappableSlotResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	slots, err := s.SlotRepo.FindSwappable(caller.ID)
	if err != nil {
		log.Errorf("failed to find swappable slots for user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}

	response := make([]*SwappableSlotResponse, len(slots))
	for i, slot := range slots {
		response[i] = toSwappableSlotResponse(slot)
	}
	return response, nil
}

func (s *DefaultSwapService) GetIncoming(subId string) ([]*SwapRequestResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	reqs, err := s.SwapRepo.FindByTargetUserID(caller.ID)
	if err != nil {
		log.Errorf("failed to find incoming swap requests for user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}
	return toSwapRequestResponses(reqs), nil
}

func (s *DefaultSwapService) GetOutgoing(subId string) ([]*SwapRequestResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	reqs, err := s.SwapRepo.FindByRequesterID(caller.ID)
	if err != nil {
		log.Errorf("failed to find outgoing swap requests for user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}
	return toSwapRequestResponses(reqs), nil
}

// transferSlot hands a slot to its new owner. The PENDING_SWAP guard failing
// means the ledger and the slots disagree, which no committed state should
// ever allow, so the transaction is aborted wholesale.
func transferSlot(r repository.TxRepositories, slotId, newOwnerId int, now int64) error {
	moved, err := r.Slots.TransferOwnership(slotId, newOwnerId, now)
	if err != nil {
		return err
	}
	if !moved {
		return errors.New("slot of a pending swap request was not PENDING_SWAP")
	}
	return nil
}

func releaseSlot(r repository.TxRepositories, slotId int, now int64) error {
	released, err := r.Slots.CompareAndSetStatus(slotId, entity.SlotPendingSwap, entity.SlotExchangeable, now)
	if err != nil {
		return err
	}
	if !released {
		return errors.New("slot of a pending swap request was not PENDING_SWAP")
	}
	return nil
}

func currentSwapStatus(r repository.TxRepositories, id int) string {
	req, err := r.Swaps.FindByID(id)
	if err != nil || req == nil {
		return "resolved"
	}
	return string(req.Status)
}

// asAPIError forwards precondition failures as-is and downgrades everything
// else to a logged 500.
func asAPIError(err error, op string) apierror.ErrorResponse {
	if apierr, ok := apierror.As(err); ok {
		return apierr
	}
	log.Errorf("failed to %s: %v", op, err)
	return apierror.InternalServerError
}

func toSwapRequestResponse(req *entity.SwapRequest, requesterSlot, targetSlot *entity.Slot, requesterName, targetUserName string) *SwapRequestResponse {
	return &SwapRequestResponse{
		ID:              req.ID,
		RequesterSlotID: req.RequesterSlotID,
		TargetSlotID:    req.TargetSlotID,
		RequesterID:     req.RequesterID,
		TargetUserID:    req.TargetUserID,
		Status:          string(req.Status),
		CreatedAt:       utils.FormatEpoch(req.CreatedAt),
		UpdatedAt:       utils.FormatEpoch(req.UpdatedAt),

		RequesterSlotTitle: requesterSlot.Title,
		RequesterSlotStart: utils.FormatEpoch(requesterSlot.BeginsAt),
		RequesterSlotEnd:   utils.FormatEpoch(requesterSlot.EndsAt),
		TargetSlotTitle:    targetSlot.Title,
		TargetSlotStart:    utils.FormatEpoch(targetSlot.BeginsAt),
		TargetSlotEnd:      utils.FormatEpoch(targetSlot.EndsAt),
		RequesterName:      requesterName,
		TargetUserName:     targetUserName,
	}
}

func toSwapRequestResponses(reqs []*entity.SwapRequest) []*SwapRequestResponse {
	response := make([]*SwapRequestResponse, len(reqs))
	for i, req := range reqs {
		response[i] = toSwapRequestResponse(req, &req.RequesterSlot, &req.TargetSlot, req.Requester.Username, req.TargetUser.Username)
	}
	return response
}
