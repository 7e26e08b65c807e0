package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"slotswapper/cmd/internal/service"
	"slotswapper/cmd/internal/utils"
	"slotswapper/cmd/internal/utils/apierror"
)

type SlotService interface {
	GetSlots(subId string) ([]*service.SlotResponse, apierror.ErrorResponse)
	CreateSlot(req *service.SlotRequest, subId string) (*service.SlotResponse, apierror.ErrorResponse)
	GetSlot(id int, subId string) (*service.SlotResponse, apierror.ErrorResponse)
	UpdateSlot(id int, req *service.SlotUpdateRequest, subId string) (*service.SlotResponse, apierror.ErrorResponse)
	DeleteSlot(id int, subId string) apierror.ErrorResponse
}

type DefaultSlotRoute struct {
	SlotService SlotService
}

func NewSlotDefault(slotService SlotService) *DefaultSlotRoute {
	return &DefaultSlotRoute{SlotService: slotService}
}

func (s *DefaultSlotRoute) GetSlots(c echo.Context) error {
	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	slots, apierr := s.SlotService.GetSlots(data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"events": slots}
	return c.JSON(http.StatusOK, &resp)
}

func (s *DefaultSlotRoute) CreateSlot(c echo.Context) error {
	var req service.SlotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, apierror.MalformedBodyError)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	slot, apierr := s.SlotService.CreateSlot(&req, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, slot)
}

func (s *DefaultSlotRoute) GetSlot(c echo.Context) error {
	id, apierr := parseIDParam(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	slot, apierr := s.SlotService.GetSlot(id, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, slot)
}

func (s *DefaultSlotRoute) UpdateSlot(c echo.Context) error {
	id, apierr := parseIDParam(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.SlotUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, apierror.MalformedBodyError)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	slot, apierr := s.SlotService.UpdateSlot(id, &req, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, slot)
}

func (s *DefaultSlotRoute) DeleteSlot(c echo.Context) error {
	id, apierr := parseIDParam(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	serr := s.SlotService.DeleteSlot(id, data.Sub)
	if serr != nil {
		return c.JSON(serr.Code(), serr)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseIDParam(c echo.Context) (int, apierror.ErrorResponse) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, apierror.NewInvalidParamTypeError("id", "int32")
	}
	return id, nil
}
