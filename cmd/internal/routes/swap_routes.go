package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"slotswapper/cmd/internal/service"
	"slotswapper/cmd/internal/utils"
	"slotswapper/cmd/internal/utils/apierror"
)

type SwapService interface {
	CreateSwapRequest(req *service.SwapRequestCreate, subId string) (*service.SwapRequestResponse, apierror.ErrorResponse)
	RespondToSwapRequest(requestId int, accepted bool, subId string) (*service.SwapRequestResponse, apierror.ErrorResponse)
	GetSwappableSlots(subId string) ([]*service.SwappableSlotResponse, apierror.ErrorResponse)
	GetIncoming(subId string) ([]*service.SwapRequestResponse, apierror.ErrorResponse)
	GetOutgoing(subId string) ([]*service.SwapRequestResponse, apierror.ErrorResponse)
}

type DefaultSwapRoute struct {
	SwapService SwapService
}

func NewSwapDefault(swapService SwapService) *DefaultSwapRoute {
	return &DefaultSwapRoute{SwapService: swapService}
}

func (s *DefaultSwapRoute) GetSwappableSlots(c echo.Context) error {
	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	slots, apierr := s.SwapService.GetSwappableSlots(data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"slots": slots}
	return c.JSON(http.StatusOK, &resp)
}

func (s *DefaultSwapRoute) CreateSwapRequest(c echo.Context) error {
	var req service.SwapRequestCreate
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, apierror.MalformedBodyError)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	swap, apierr := s.SwapService.CreateSwapRequest(&req, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, swap)
}

func (s *DefaultSwapRoute) RespondToSwapRequest(c echo.Context) error {
	id, apierr := parseIDParam(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.SwapDecisionRequest
	if err := c.Bind(&req); err != nil || req.Accepted == nil {
		return c.JSON(400, apierror.MalformedBodyError)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	swap, apierr := s.SwapService.RespondToSwapRequest(id, *req.Accepted, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, swap)
}

func (s *DefaultSwapRoute) GetIncoming(c echo.Context) error {
	return s.listRequests(c, s.SwapService.GetIncoming)
}

func (s *DefaultSwapRoute) GetOutgoing(c echo.Context) error {
	return s.listRequests(c, s.SwapService.GetOutgoing)
}

func (s *DefaultSwapRoute) listRequests(c echo.Context, fetch func(string) ([]*service.SwapRequestResponse, apierror.ErrorResponse)) error {
	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	reqs, apierr := fetch(data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"swap_requests": reqs}
	return c.JSON(http.StatusOK, &resp)
}
