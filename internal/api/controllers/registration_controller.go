package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"alumni/internal/models/request_models"
	"alumni/internal/services"
	"alumni/pkg/middleware"
	"alumni/pkg/utils"
)

type RegistrationController struct {
	registrationService services.RegistrationService
}

func NewRegistrationController(registrationService services.RegistrationService) *RegistrationController {
	return &RegistrationController{
		registrationService: registrationService,
	}
}

// Register godoc
// @Summary Register for an event
// @Description Replaying a payment_intent_id that already produced this registration returns it with 200
// @Tags Registrations
// @Accept json
// @Produce json
// @Param request body request_models.CreateRegistrationRequest true "Registration"
// @Success 201 {object} utils.APIResponse{data=response_models.RegistrationResponse}
// @Failure 403 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /registrations [post]
func (r *RegistrationController) Register(c *gin.Context) {
	var req request_models.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid event_id")
		return
	}

	registration, created, err := r.registrationService.Register(c.Request.Context(), middleware.Principal(c), eventID, req.PaymentIntentID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	if !created {
		utils.RespondSuccess(c, registration, "Registration already recorded")
		return
	}
	utils.RespondCreated(c, registration, "Registered successfully")
}

// MyEvents godoc
// @Summary Events the caller is registered for
// @Tags Registrations
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /registrations/my-events [get]
func (r *RegistrationController) MyEvents(c *gin.Context) {
	events, err := r.registrationService.MyEvents(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, events, "Registered events fetched successfully")
}

// ListForEvent godoc
// @Summary Registrations for an event
// @Tags Registrations
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /registrations/event/{id} [get]
func (r *RegistrationController) ListForEvent(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	registrations, err := r.registrationService.ListForEvent(c.Request.Context(), middleware.Principal(c), eventID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, registrations, "Registrations fetched successfully")
}

// UpdateAttendance godoc
// @Summary Mark attendance
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param request body request_models.UpdateAttendanceRequest true "Attendance"
// @Success 200 {object} utils.APIResponse{data=response_models.RegistrationResponse}
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /registrations/{id}/attendance [put]
func (r *RegistrationController) UpdateAttendance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateAttendanceRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	registration, err := r.registrationService.UpdateAttendance(c.Request.Context(), middleware.Principal(c), id, *req.Attended)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, registration, "Attendance updated successfully")
}

// Cancel godoc
// @Summary Cancel a registration
// @Description Only before the event starts
// @Tags Registrations
// @Produce json
// @Param event_id path string true "Event ID"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /registrations/{event_id} [delete]
func (r *RegistrationController) Cancel(c *gin.Context) {
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}

	if err := r.registrationService.Cancel(c.Request.Context(), middleware.Principal(c), eventID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Registration cancelled successfully")
}
