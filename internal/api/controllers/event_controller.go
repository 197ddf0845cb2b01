package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"alumni/internal/models/request_models"
	"alumni/internal/services"
	"alumni/pkg/middleware"
	"alumni/pkg/utils"
)

type EventController struct {
	eventService services.EventService
}

func NewEventController(eventService services.EventService) *EventController {
	return &EventController{
		eventService: eventService,
	}
}

// ListEvents godoc
// @Summary List events
// @Description Members-only events are listed for admins and current members only
// @Tags Events
// @Produce json
// @Param upcoming query bool false "Only events that have not started"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} utils.APIResponse
// @Router /events [get]
func (e *EventController) ListEvents(c *gin.Context) {
	page, err := utils.ParsePage(c, defaultPageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	upcoming, err := strconv.ParseBool(c.DefaultQuery("upcoming", "false"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid upcoming parameter")
		return
	}

	events, err := e.eventService.List(c.Request.Context(), middleware.Principal(c), upcoming, page)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, events, "Events fetched successfully")
}

// GetEvent godoc
// @Summary Event details
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} utils.APIResponse{data=response_models.EventResponse}
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /events/{id} [get]
func (e *EventController) GetEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	event, err := e.eventService.Get(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, event, "Event fetched successfully")
}

// CreateEvent godoc
// @Summary Create an event
// @Tags Events
// @Accept json
// @Produce json
// @Param request body request_models.CreateEventRequest true "Event"
// @Success 201 {object} utils.APIResponse{data=response_models.EventResponse}
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /events [post]
func (e *EventController) CreateEvent(c *gin.Context) {
	var req request_models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	event, err := e.eventService.Create(c.Request.Context(), middleware.Principal(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, event, "Event created successfully")
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partial update; omitted fields are unchanged
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body request_models.UpdateEventRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=response_models.EventResponse}
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /events/{id} [put]
func (e *EventController) UpdateEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	event, err := e.eventService.Update(c.Request.Context(), middleware.Principal(c), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, event, "Event updated successfully")
}

// DeleteEvent godoc
// @Summary Delete an event and its registrations
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /events/{id} [delete]
func (e *EventController) DeleteEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := e.eventService.Delete(c.Request.Context(), middleware.Principal(c), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Event deleted successfully")
}
