package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"alumni/internal/models/request_models"
	"alumni/internal/services"
	"alumni/pkg/middleware"
	"alumni/pkg/utils"
)

const maxWebhookBytes = 64 << 10

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// CreateIntent godoc
// @Summary Create a payment intent
// @Description Exactly one of event_id or membership_type. The amount is priced on the server.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.CreatePaymentIntentRequest true "Purchase target"
// @Success 200 {object} utils.APIResponse{data=response_models.PaymentIntentResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/create-intent [post]
func (p *PaymentController) CreateIntent(c *gin.Context) {
	var req request_models.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	intent, err := p.paymentService.CreateIntent(c.Request.Context(), middleware.Principal(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, intent, "Payment intent created successfully")
}

// HandleWebhook godoc
// @Summary Payment provider webhook
// @Description Verified with the Stripe-Signature header against the raw body
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} response_models.WebhookResult
// @Failure 400 {object} utils.APIResponse
// @Router /payments/webhook [post]
func (p *PaymentController) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	result, err := p.paymentService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		// Anything but a rejected signature is answered with a 5xx so the
		// provider redelivers.
		utils.HandleServiceError(c, err)
		return
	}

	utils.Logger(c).Info("webhook processed", zap.String("outcome", result.Outcome))
	c.JSON(http.StatusOK, result)
}

// GetConfig godoc
// @Summary Publishable payment configuration
// @Tags Payments
// @Produce json
// @Success 200 {object} response_models.PaymentConfigResponse
// @Router /payments/config [get]
func (p *PaymentController) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, p.paymentService.Config())
}

// ListFailures godoc
// @Summary Confirmed payments that produced no record
// @Tags Payments
// @Produce json
// @Param limit query int false "Maximum rows" default(50)
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/failures [get]
func (p *PaymentController) ListFailures(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > utils.MaxPageSize {
		utils.RespondError(c, http.StatusBadRequest, "Invalid limit parameter")
		return
	}

	failures, err := p.paymentService.ListFailures(c.Request.Context(), middleware.Principal(c), limit)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, failures, "Reconciliation failures fetched successfully")
}
