package api

import (
	"errors"
	"log/slog"
	"net/http"

	reqdto "sosiego-api/internal/handler/dto/request"
	resdto "sosiego-api/internal/handler/dto/response"
	"sosiego-api/internal/pkg/errs"
	"sosiego-api/internal/usecase/commands"
	"sosiego-api/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentCommands commands.PaymentCommands
	paymentQueries  queries.PaymentQueries
}

func NewPaymentHandler(
	paymentCommands commands.PaymentCommands,
	paymentQueries queries.PaymentQueries,
) *PaymentHandler {
	return &PaymentHandler{
		paymentCommands: paymentCommands,
		paymentQueries:  paymentQueries,
	}
}

// @Summary Create checkout preference
// @Description Open a Mercado Pago checkout for a reservation or a draft
// @Tags payments
// @Accept json
// @Produce json
// @Param request body reqdto.CreatePreferenceRequest true "Preference request"
// @Success 201 {object} resdto.PreferenceResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /payments/create-preference [post]
func (h *PaymentHandler) CreatePreference(c *gin.Context) {
	var req reqdto.CreatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.ReservationID == nil && req.Reservation == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either reservationId or reservation data is required"})
		return
	}

	params := commands.CreatePreferenceParams{ReservationID: req.ReservationID}
	if req.Reservation != nil {
		draft := req.Reservation.ToDomain()
		params.Draft = &draft
	}

	result, err := h.paymentCommands.CreatePreference(c.Request.Context(), params)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromPreferenceResult(result))
}

// @Summary Process card payment
// @Description Charge a tokenized card and confirm the reservation inline
// @Tags payments
// @Accept json
// @Produce json
// @Param request body reqdto.ProcessPaymentRequest true "Payment request"
// @Success 200 {object} resdto.ChargeResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /payments/process [post]
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req reqdto.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.ReservationID == nil && req.Reservation == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either reservationId or reservation data is required"})
		return
	}

	params := commands.DirectChargeParams{
		CardToken:     req.CardToken,
		Installments:  req.Installments,
		PayerEmail:    req.PayerEmail,
		ReservationID: req.ReservationID,
	}
	if req.Reservation != nil {
		draft := req.Reservation.ToDomain()
		params.Draft = &draft
	}

	result, err := h.paymentCommands.ChargeDirect(c.Request.Context(), params)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromChargeResult(result))
}

// @Summary Payment webhook
// @Description Mercado Pago notification endpoint. Always acknowledges with
// 200 so the gateway stops retrying; reconciliation outcomes are logged.
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req reqdto.WebhookRequest
	// Notifications may come as a JSON body or as query parameters.
	_ = c.ShouldBindJSON(&req)
	if req.Type == "" {
		req.Type = c.Query("type")
		if req.Type == "" {
			req.Type = c.Query("topic")
		}
	}
	if req.Data.ID == "" {
		req.Data.ID = c.Query("data.id")
		if req.Data.ID == "" {
			req.Data.ID = c.Query("id")
		}
	}

	outcome, err := h.paymentCommands.Reconcile(c.Request.Context(), commands.NotificationParams{
		Type:   req.Type,
		DataID: req.Data.ID,
	})
	if err != nil {
		slog.Error("webhook reconciliation failed",
			"type", req.Type, "data_id", req.Data.ID, "outcome", string(outcome), "error", err)
	} else if outcome != commands.OutcomeIgnored {
		slog.Info("webhook reconciled",
			"type", req.Type, "data_id", req.Data.ID, "outcome", string(outcome))
	}

	// Errors included: a non-2xx would only make the gateway redeliver a
	// notification we already cannot apply.
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// @Summary Payment status
// @Tags payments
// @Produce json
// @Param externalId path string true "Gateway payment ID or local payment ID"
// @Success 200 {object} resdto.PaymentStatusResponse
// @Failure 404 {object} map[string]string
// @Router /payments/{externalId}/status [get]
func (h *PaymentHandler) GetStatus(c *gin.Context) {
	view, err := h.paymentQueries.GetStatus(c.Request.Context(), c.Param("externalId"))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromPaymentView(view))
}

func respondPaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Reservation not found"})
	case errors.Is(err, errs.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
	case errors.Is(err, errs.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": "Reservation is already paid"})
	case errors.Is(err, errs.ErrPastCheckIn):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Check-in date cannot be in the past"})
	case errors.Is(err, errs.ErrInvalidDateRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Check-out must be after check-in"})
	case errors.Is(err, errs.ErrDomainValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment request"})
	case errors.Is(err, errs.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider is unavailable, try again later"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
