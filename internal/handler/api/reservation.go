package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"sosiego-api/internal/domain/reservation"
	reqdto "sosiego-api/internal/handler/dto/request"
	resdto "sosiego-api/internal/handler/dto/response"
	"sosiego-api/internal/pkg/errs"
	"sosiego-api/internal/usecase/commands"
	"sosiego-api/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	reservationCommands commands.ReservationCommands
	reservationQueries  queries.ReservationQueries
}

func NewReservationHandler(
	reservationCommands commands.ReservationCommands,
	reservationQueries queries.ReservationQueries,
) *ReservationHandler {
	return &ReservationHandler{
		reservationCommands: reservationCommands,
		reservationQueries:  reservationQueries,
	}
}

// @Summary Create reservation
// @Description Create a pending reservation for the cabin
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body reqdto.CreateReservationRequest true "Reservation request"
// @Success 201 {object} resdto.ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations [post]
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req reqdto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	params, err := req.ToParams()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, expected YYYY-MM-DD"})
		return
	}

	view, err := h.reservationCommands.Create(c.Request.Context(), params)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromReservationView(view))
}

// @Summary Update reservation
// @Description Partially update a reservation's details
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body reqdto.UpdateReservationRequest true "Fields to update"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id} [patch]
func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reservation ID"})
		return
	}

	var req reqdto.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	params, err := req.ToParams()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, expected YYYY-MM-DD"})
		return
	}

	view, err := h.reservationCommands.Update(c.Request.Context(), id, params)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

// @Summary Check availability
// @Description Check whether the cabin is free for a date range
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body reqdto.CheckAvailabilityRequest true "Date range"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Router /reservations/check-availability [post]
func (h *ReservationHandler) CheckAvailability(c *gin.Context) {
	var req reqdto.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	stay, err := req.ToStay()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Check-out must be after check-in"})
		return
	}

	available, err := h.reservationQueries.IsAvailable(c.Request.Context(), stay, nil)
	if err != nil {
		if errors.Is(err, errs.ErrPastCheckIn) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Check-in date cannot be in the past"})
			return
		}
		respondReservationError(c, err)
		return
	}

	// Guest-facing copy stays in Spanish, same as the emails.
	message := "Fechas no disponibles"
	if available {
		message = "Fechas disponibles"
	}
	c.JSON(http.StatusOK, resdto.AvailabilityResponse{
		Available: available,
		Message:   message,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
	})
}

// @Summary Find reservation by confirmation code
// @Tags reservations
// @Produce json
// @Param code path string true "Confirmation code"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 404 {object} map[string]string
// @Router /reservations/by-code/{code} [get]
func (h *ReservationHandler) GetByCode(c *gin.Context) {
	view, err := h.reservationQueries.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

// @Summary Monthly availability calendar
// @Tags reservations
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} resdto.CalendarResponse
// @Failure 400 {object} map[string]string
// @Router /reservations/calendar/{year}/{month} [get]
func (h *ReservationHandler) MonthCalendar(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month"})
		return
	}

	days, err := h.reservationQueries.MonthCalendar(c.Request.Context(), year, time.Month(month))
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCalendar(year, month, days))
}

// @Summary List reservations by status
// @Tags reservations
// @Produce json
// @Param status path string true "Reservation status"
// @Success 200 {array} resdto.ReservationResponse
// @Failure 400 {object} map[string]string
// @Router /reservations/by-status/{status} [get]
func (h *ReservationHandler) ListByStatus(c *gin.Context) {
	status := reservation.Status(c.Param("status"))
	if !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reservation status"})
		return
	}

	views, err := h.reservationQueries.ListByStatus(c.Request.Context(), status)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationViews(views))
}

// @Summary Reservation statistics
// @Tags reservations
// @Produce json
// @Success 200 {object} resdto.StatsResponse
// @Router /reservations/stats [get]
func (h *ReservationHandler) Stats(c *gin.Context) {
	stats, err := h.reservationQueries.Stats(c.Request.Context())
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromStats(stats))
}

// @Summary List soon-to-expire reservations
// @Description Pending unpaid reservations with check-in inside the window
// @Tags reservations
// @Produce json
// @Param days query int false "Window in days" default(2)
// @Success 200 {array} resdto.ReservationResponse
// @Router /reservations/expiring [get]
func (h *ReservationHandler) ListExpiring(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "2"))
	if err != nil || days < 0 || days > 60 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
		return
	}

	views, err := h.reservationQueries.ListExpiring(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationViews(views))
}

// @Summary Cancel expired reservations
// @Description Sweep pending unpaid reservations past their check-in date
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.SweepResponse
// @Failure 401 {object} map[string]string
// @Router /reservations/cancel-expired [post]
func (h *ReservationHandler) CancelExpired(c *gin.Context) {
	count, err := h.reservationCommands.SweepExpired(c.Request.Context())
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.SweepResponse{CancelledCount: count})
}

func respondReservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Reservation not found"})
	case errors.Is(err, errs.ErrDatesConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "The selected dates are no longer available"})
	case errors.Is(err, errs.ErrPastCheckIn), errors.Is(err, reservation.ErrPastCheckIn):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Check-in date cannot be in the past"})
	case errors.Is(err, reservation.ErrInvalidDateRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Check-out must be after check-in"})
	case errors.Is(err, reservation.ErrGuestsOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Guests must be between 1 and 8"})
	case errors.Is(err, reservation.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
	case errors.Is(err, reservation.ErrEmptyContactField):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email and phone are required"})
	case errors.Is(err, reservation.ErrNonPositivePrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Total price must be greater than zero"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
