package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alumni/internal/models/request_models"
	"alumni/internal/services"
	"alumni/pkg/middleware"
	"alumni/pkg/utils"
)

type MembershipController struct {
	membershipService services.MembershipService
}

func NewMembershipController(membershipService services.MembershipService) *MembershipController {
	return &MembershipController{
		membershipService: membershipService,
	}
}

// CreateMembership godoc
// @Summary Start a membership
// @Tags Memberships
// @Accept json
// @Produce json
// @Param request body request_models.CreateMembershipRequest true "Membership"
// @Success 201 {object} utils.APIResponse{data=response_models.MembershipResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /memberships [post]
func (m *MembershipController) CreateMembership(c *gin.Context) {
	var req request_models.CreateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	membership, err := m.membershipService.Create(c.Request.Context(), middleware.Principal(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, membership, "Membership activated successfully")
}

// MyMembership godoc
// @Summary The caller's current membership
// @Tags Memberships
// @Produce json
// @Success 200 {object} utils.APIResponse{data=response_models.MyMembershipResponse}
// @Security BearerAuth
// @Router /memberships/my-membership [get]
func (m *MembershipController) MyMembership(c *gin.Context) {
	membership, err := m.membershipService.Current(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, membership, "Membership fetched successfully")
}

// CancelMembership godoc
// @Summary Cancel a membership
// @Tags Memberships
// @Produce json
// @Param id path string true "Membership ID"
// @Success 200 {object} utils.APIResponse{data=response_models.MembershipResponse}
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /memberships/{id}/cancel [put]
func (m *MembershipController) CancelMembership(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	membership, err := m.membershipService.Cancel(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, membership, "Membership cancelled successfully")
}

// ListMemberships godoc
// @Summary List memberships
// @Tags Memberships
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /memberships [get]
func (m *MembershipController) ListMemberships(c *gin.Context) {
	page, err := utils.ParsePage(c, defaultPageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	memberships, err := m.membershipService.List(c.Request.Context(), middleware.Principal(c), page)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, memberships, "Memberships fetched successfully")
}

// Stats godoc
// @Summary Membership statistics
// @Tags Memberships
// @Produce json
// @Success 200 {object} utils.APIResponse{data=response_models.MembershipStatsResponse}
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /memberships/stats [get]
func (m *MembershipController) Stats(c *gin.Context) {
	stats, err := m.membershipService.Stats(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, stats, "Membership statistics fetched successfully")
}
