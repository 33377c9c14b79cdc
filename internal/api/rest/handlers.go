package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/bid"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/errors"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
	"github.com/suntan-superman/rydeiq-backend/internal/service/bidding"
)

// Handler holds the REST endpoint implementations
type Handler struct {
	rides    bidding.Service
	validate *validator.Validate
}

// NewHandler creates the REST handler
func NewHandler(rides bidding.Service) *Handler {
	return &Handler{
		rides:    rides,
		validate: validator.New(),
	}
}

type locationRequest struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Address   string  `json:"address"`
}

type createRideRequest struct {
	Pickup          locationRequest `json:"pickup" validate:"required"`
	Dropoff         locationRequest `json:"dropoff" validate:"required"`
	Category        string          `json:"category"`
	SpecialRequests []string        `json:"special_requests" validate:"max=10,dive,max=100"`
	PaymentMethod   string          `json:"payment_method" validate:"max=50"`
}

type submitBidRequest struct {
	Amount      string   `json:"amount" validate:"required"`
	Currency    string   `json:"currency" validate:"required,len=3"`
	ETAMinutes  int      `json:"eta_minutes" validate:"gte=0,lte=240"`
	Note        string   `json:"note" validate:"max=500"`
	ServiceTags []string `json:"service_tags" validate:"max=10,dive,max=50"`
}

type selectDriverRequest struct {
	DriverID string `json:"driver_id" validate:"required,uuid"`
}

func (h *Handler) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.NewInvalidInputError("MALFORMED_BODY", "request body is not valid JSON").WithCause(err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return errors.NewInvalidInputError("VALIDATION_FAILED", err.Error())
	}
	return nil
}

func pathRideID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, errors.NewInvalidInputError("INVALID_RIDE_ID", "ride id is not a valid uuid")
	}
	return id, nil
}

// CreateRide handles POST /api/v1/rides
func (h *Handler) CreateRide(w http.ResponseWriter, r *http.Request) {
	var req createRideRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := values.ParseCategory(req.Category)
	if err != nil {
		writeError(w, r, errors.NewInvalidInputError("INVALID_CATEGORY", err.Error()))
		return
	}

	snap, err := h.rides.RequestRide(r.Context(), bidding.RequestRideInput{
		RiderID:         actorID(r),
		Pickup:          values.Location{Latitude: req.Pickup.Latitude, Longitude: req.Pickup.Longitude, Address: req.Pickup.Address},
		Dropoff:         values.Location{Latitude: req.Dropoff.Latitude, Longitude: req.Dropoff.Longitude, Address: req.Dropoff.Address},
		Category:        category,
		SpecialRequests: req.SpecialRequests,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GetRide handles GET /api/v1/rides/{id}
func (h *Handler) GetRide(w http.ResponseWriter, r *http.Request) {
	id, err := pathRideID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := h.rides.GetRide(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SubmitBid handles POST /api/v1/rides/{id}/bids
func (h *Handler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	id, err := pathRideID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req submitBidRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	amount, err := values.NewMoneyFromString(req.Amount, req.Currency)
	if err != nil {
		writeError(w, r, errors.NewInvalidInputError("INVALID_BID_AMOUNT", err.Error()))
		return
	}

	snap, err := h.rides.SubmitBid(r.Context(), bidding.SubmitBidInput{
		RideID:      id,
		DriverID:    actorID(r),
		Amount:      amount,
		ETAMinutes:  req.ETAMinutes,
		Note:        req.Note,
		ServiceTags: req.ServiceTags,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// ListBids handles GET /api/v1/rides/{id}/bids?sort=
func (h *Handler) ListBids(w http.ResponseWriter, r *http.Request) {
	id, err := pathRideID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	key, err := bid.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, r, errors.NewInvalidInputError("INVALID_SORT_KEY", err.Error()))
		return
	}

	bids, err := h.rides.ListBids(r.Context(), id, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bids": bids})
}

// SelectDriver handles POST /api/v1/rides/{id}/select
func (h *Handler) SelectDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathRideID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req selectDriverRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		writeError(w, r, errors.NewInvalidInputError("INVALID_DRIVER_ID", "driver id is not a valid uuid"))
		return
	}

	snap, err := h.rides.SelectDriver(r.Context(), id, driverID, actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// StartTrip handles POST /api/v1/rides/{id}/start
func (h *Handler) StartTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathRideID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := h.rides.StartTrip(r.Context(), id, actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CompleteTrip handles POST /api/v1/rides/{id}/complete
func (h *Handler) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathRideID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := h.rides.CompleteTrip(r.Context(), id, actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CancelRide handles POST /api/v1/rides/{id}/cancel
func (h *Handler) CancelRide(w http.ResponseWriter, r *http.Request) {
	id, err := pathRideID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := h.rides.Cancel(r.Context(), id, actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
