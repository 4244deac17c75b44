package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reservo/booking-system/internal/core/ports"
)

// ResourceHandler serves the resource catalogue.
type ResourceHandler struct {
	service ports.ResourceService
}

func NewResourceHandler(service ports.ResourceService) *ResourceHandler {
	return &ResourceHandler{service: service}
}

// List handles GET /resources and GET /resources/available.
//
// @Summary      List resources
// @Description  An empty catalogue is seeded with the default rooms and services.
// @Tags         resources
// @Produce      json
// @Success      200  {array}   domain.Resource
// @Router       /resources [get]
func (h *ResourceHandler) List(c echo.Context) error {
	resources, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resources)
}

// Get handles GET /resources/:id.
//
// @Summary      Get a resource
// @Tags         resources
// @Produce      json
// @Param        id   path      string  true  "Resource id"
// @Success      200  {object}  domain.Resource
// @Failure      404  {object}  errorResponse
// @Router       /resources/{id} [get]
func (h *ResourceHandler) Get(c echo.Context) error {
	r, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// Create handles POST /resources.
//
// @Summary      Create resources
// @Description  Resources whose name already exists are skipped and reported.
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createResourcesRequest  true  "Resources to create"
// @Success      201   {object}  createResourcesResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /resources [post]
func (h *ResourceHandler) Create(c echo.Context) error {
	var req createResourcesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.CreateBatch(c.Request().Context(), toResourceInputs(req.Resources))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createResourcesResponse{
		Message:  fmt.Sprintf("%d resources inserted, %d skipped", len(res.Inserted), len(res.Skipped)),
		Inserted: res.Inserted,
		Skipped:  res.Skipped,
	})
}

// SetAvailability handles PUT /resources/:id/availability.
//
// @Summary      Configure resource availability
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Resource id"
// @Param        body  body      availabilityRequest  true  "Opening hours and blackout dates (UTC)"
// @Success      200   {object}  domain.Resource
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /resources/{id}/availability [put]
func (h *ResourceHandler) SetAvailability(c echo.Context) error {
	var req availabilityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	r, err := h.service.SetAvailability(c.Request().Context(), c.Param("id"), ports.AvailabilityInput{
		OpenHour:      req.OpenHour,
		CloseHour:     req.CloseHour,
		BlackoutDates: req.BlackoutDates,
		Slots:         req.Slots,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}
