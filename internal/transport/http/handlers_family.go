package httptransport

import (
	"encoding/base64"
	"net/http"

	"relieflink/internal/attestation"
	"relieflink/internal/platform/middleware"
	registryservice "relieflink/internal/registry/service"
	dErrors "relieflink/pkg/domain-errors"
	"relieflink/pkg/platform/httputil"
)

func (h *Handler) handleRegisterFamily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	volunteer, ok := GetVolunteer(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "volunteer identity missing"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterFamilyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	payload, _ := base64.StdEncoding.DecodeString(req.Proof)
	claim, err := h.attestor.Verify(ctx, attestation.Proof{Payload: payload})
	if err != nil {
		h.logger.WarnContext(ctx, "family attestation failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	registration, err := h.registry.Register(ctx, registryservice.RegisterRequest{
		Claim:        claim.Hashed,
		Location:     req.Location,
		FamilySize:   req.FamilySize,
		RegisteredBy: volunteer.Nullifier,
		RequestID:    requestID,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "family registration failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &RegisterFamilyResponse{
		URID:       registration.URID.String(),
		Commitment: registration.Family.Commitment.String(),
		FamilySize: registration.Family.FamilySize,
		Registered: registration.Family.RegisteredAt,
	})
}

func (h *Handler) handleGetFamily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	commitment, err := commitmentParam(r)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid commitment"))
		return
	}

	family, err := h.registry.Get(ctx, commitment)
	if err != nil {
		h.logger.WarnContext(ctx, "family lookup failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &FamilyResponse{
		Commitment:   family.Commitment.String(),
		FamilySize:   family.FamilySize,
		RegisteredAt: family.RegisteredAt,
		Active:       family.Active,
	})
}

func (h *Handler) handleFamilyStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	commitment, err := commitmentParam(r)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid commitment"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[FamilyStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.registry.SetActive(ctx, commitment, req.Active, req.Reason); err != nil {
		h.logger.ErrorContext(ctx, "family status update failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	family, err := h.registry.Get(ctx, commitment)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &FamilyResponse{
		Commitment:   family.Commitment.String(),
		FamilySize:   family.FamilySize,
		RegisteredAt: family.RegisteredAt,
		Active:       family.Active,
	})
}
