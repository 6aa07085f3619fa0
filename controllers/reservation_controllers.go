package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/middlewares"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/services"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/gin-gonic/gin"
)

type ReservationController struct {
	Reservations *services.ReservationService
	Availability *services.AvailabilityService
	Proofs       *services.PaymentProofService
}

func NewReservationController(reservations *services.ReservationService, availability *services.AvailabilityService, proofs *services.PaymentProofService) *ReservationController {
	return &ReservationController{Reservations: reservations, Availability: availability, Proofs: proofs}
}

// GetFullyBookedDates -> ?year=2025&month=11
func (rc *ReservationController) GetFullyBookedDates(c *gin.Context) {
	year, yerr := strconv.Atoi(c.Query("year"))
	month, merr := strconv.Atoi(c.Query("month"))
	if yerr != nil || merr != nil {
		fields := []services.FieldError{}
		if yerr != nil {
			fields = append(fields, services.FieldError{Field: "year", Message: "must be a number"})
		}
		if merr != nil {
			fields = append(fields, services.FieldError{Field: "month", Message: "must be a number"})
		}
		utils.RespondValidation(c, fields)
		return
	}

	dates, err := rc.Availability.GetFullyBookedDates(c.Request.Context(), year, month)
	if err != nil {
		respondServiceError(c, "fetch fully booked dates", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Fully booked dates retrieved successfully", dates)
}

// CreateReservation -> customer_id hanya diambil dari token customer
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var input services.CreateReservationInput
	if !bindJSON(c, &input) {
		return
	}
	if userID, role, ok := middlewares.Actor(c); ok && role == models.RoleCustomer {
		input.CustomerID = &userID
	}

	result, err := rc.Reservations.Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, "create reservation", err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created successfully", result)
}

// GetReservations -> customer hanya melihat reservasinya sendiri
func (rc *ReservationController) GetReservations(c *gin.Context) {
	filter := services.ReservationFilter{
		Status: c.Query("status"),
		Date:   c.Query("date"),
	}
	if userID, role, ok := middlewares.Actor(c); ok && role == models.RoleCustomer {
		filter.CustomerID = &userID
	}

	reservations, err := rc.Reservations.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, "fetch reservations", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservations retrieved successfully", reservations)
}

func (rc *ReservationController) GetReservation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	reservation, err := rc.Reservations.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "fetch reservation", err)
		return
	}
	if !canSeeReservation(c, reservation) {
		respondServiceError(c, "fetch reservation", &services.NotFoundError{Resource: "Reservation"})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation retrieved successfully", reservation)
}

// UpdateReservation -> patch kolom yang diizinkan saja
func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch map[string]json.RawMessage
	if !bindJSON(c, &patch) {
		return
	}

	reservation, err := rc.Reservations.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondServiceError(c, "update reservation", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation updated successfully", reservation)
}

func (rc *ReservationController) UpdateReservationStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &body) {
		return
	}

	reservation, err := rc.Reservations.UpdateStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondServiceError(c, "update reservation status", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation status updated successfully", reservation)
}

func (rc *ReservationController) DeleteReservation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := rc.Reservations.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, "delete reservation", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation deleted successfully", gin.H{"id": id})
}

// UploadPaymentProof -> multipart field "payment_proof"
func (rc *ReservationController) UploadPaymentProof(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("payment_proof")
	if err != nil {
		utils.RespondValidation(c, []services.FieldError{{Field: "payment_proof", Message: "is required"}})
		return
	}
	if header.Size > services.MaxProofSize {
		utils.RespondValidation(c, []services.FieldError{{Field: "payment_proof", Message: "must be 5MB or smaller"}})
		return
	}

	existing, err := rc.Reservations.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "upload payment proof", err)
		return
	}
	if !canSeeReservation(c, existing) {
		respondServiceError(c, "upload payment proof", &services.NotFoundError{Resource: "Reservation"})
		return
	}

	file, err := header.Open()
	if err != nil {
		respondServiceError(c, "upload payment proof", err)
		return
	}
	defer file.Close()

	reservation, err := rc.Proofs.Upload(c.Request.Context(), id, file, header.Size)
	if err != nil {
		respondServiceError(c, "upload payment proof", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment proof uploaded successfully", reservation)
}

func canSeeReservation(c *gin.Context, r *models.Reservation) bool {
	userID, role, ok := middlewares.Actor(c)
	if !ok || role != models.RoleCustomer {
		return true
	}
	return r.CustomerID != nil && *r.CustomerID == userID
}
