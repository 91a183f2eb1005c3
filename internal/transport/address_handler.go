package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AddressRequest struct {
	FullName    string `json:"full_name" validate:"required,max=100"`
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
	Pincode     string `json:"pincode" validate:"required,max=10"`
	Area        string `json:"area" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
}

// AddressHandler serves the caller's shipping addresses
type AddressHandler struct {
	addresses service.AddressService
	logger    *zap.Logger
}

func NewAddressHandler(addresses service.AddressService, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{addresses: addresses, logger: logger}
}

// Routes adds the address endpoints to an authenticated /api/users router
func (h *AddressHandler) Routes(r chi.Router) {
	r.Get("/addresses", h.List)
	r.Post("/addresses", h.Add)
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	addresses, err := h.addresses.List(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, addresses)
}

func (h *AddressHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddressRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	address, err := h.addresses.Add(r.Context(), userID, service.AddressInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Pincode:     req.Pincode,
		Area:        req.Area,
		City:        req.City,
		State:       req.State,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusCreated, address)
}
