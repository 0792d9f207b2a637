package entitlement

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/resumekit/pkg/plans"
)

// adminCredentialHeader carries the administrative secret for the settings
// write path. It is a separate credential, never an end-user session token.
const adminCredentialHeader = "X-Admin-Credential"

// Router mounts the entitlement core's UI and admin boundary:
//
//	POST /upgrade/initiate          {user_id, plan, annual} -> {transaction_id}
//	POST /upgrade/confirm           {user_id, transaction_id} -> {outcome}
//	GET  /users/{userID}/entitlement -> {plan, usage, limits}
//	GET  /lifetime-offer             -> {remaining_seats, price}
//	PUT  /admin/lifetime-price       {price} (X-Admin-Credential header)
func Router(svc *Service) chi.Router {
	r := chi.NewRouter()

	r.Post("/upgrade/initiate", handleInitiate(svc))
	r.Post("/upgrade/confirm", handleConfirm(svc))
	r.Get("/users/{userID}/entitlement", handleEntitlement(svc))
	r.Get("/lifetime-offer", handleLifetimeOffer(svc))
	r.Put("/admin/lifetime-price", handleSetLifetimePrice(svc))

	return r
}

type initiateRequest struct {
	UserID string `json:"user_id"`
	Plan   string `json:"plan"`
	Annual bool   `json:"annual"`
}

func handleInitiate(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req initiateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		tier, err := plans.ParseTier(req.Plan)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown plan")
			return
		}

		txID, err := svc.InitiateUpgrade(r.Context(), userID, tier, req.Annual)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotAnUpgrade), errors.Is(err, plans.ErrPlanNotFound):
				writeError(w, http.StatusConflict, "requested plan is not an upgrade")
			case errors.Is(err, ErrProviderNotConfigured):
				// Operator problem; detail stays in the logs.
				writeError(w, http.StatusServiceUnavailable, "billing temporarily unavailable, try again")
			case errors.Is(err, ErrProviderUnavailable):
				writeError(w, http.StatusBadGateway, "billing temporarily unavailable, try again")
			default:
				writeError(w, http.StatusInternalServerError, "something went wrong, try again")
			}
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"transaction_id": txID})
	}
}

type confirmRequest struct {
	UserID        string `json:"user_id"`
	TransactionID string `json:"transaction_id"`
}

func handleConfirm(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req confirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		err = svc.ConfirmUpgrade(r.Context(), userID, req.TransactionID)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]string{"outcome": "applied"})
		case errors.Is(err, ErrSeatsExhausted):
			writeJSON(w, http.StatusConflict, map[string]string{"outcome": "seat_exhausted"})
		case errors.Is(err, ErrPaymentPending):
			writeJSON(w, http.StatusAccepted, map[string]string{"outcome": "pending"})
		case errors.Is(err, ErrVerificationFailed):
			writeJSON(w, http.StatusPaymentRequired, map[string]string{"outcome": "verification_failed"})
		case errors.Is(err, ErrProviderUnavailable):
			writeJSON(w, http.StatusBadGateway, map[string]string{"outcome": "upstream_error"})
		case errors.Is(err, ErrTransactionNotFound):
			writeError(w, http.StatusNotFound, "transaction not found")
		default:
			writeError(w, http.StatusInternalServerError, "something went wrong, try again")
		}
	}
}

func handleEntitlement(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		ent, err := svc.GetEntitlement(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "something went wrong, try again")
			return
		}

		writeJSON(w, http.StatusOK, ent)
	}
}

func handleLifetimeOffer(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offer, err := svc.GetLifetimeOffer(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "something went wrong, try again")
			return
		}
		writeJSON(w, http.StatusOK, offer)
	}
}

type setPriceRequest struct {
	Price int64 `json:"price"`
}

func handleSetLifetimePrice(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setPriceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		err := svc.SetLifetimePrice(r.Context(), r.Header.Get(adminCredentialHeader), req.Price)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, ErrInvalidAdminCredential):
			writeError(w, http.StatusUnauthorized, "invalid credential")
		case errors.Is(err, ErrInvalidPrice):
			writeError(w, http.StatusBadRequest, "price must be positive")
		default:
			writeError(w, http.StatusInternalServerError, "something went wrong, try again")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
