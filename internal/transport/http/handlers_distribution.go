package httptransport

import (
	"net/http"

	"relieflink/internal/auth/device"
	"relieflink/internal/distribution"
	ledgermodels "relieflink/internal/ledger/models"
	"relieflink/internal/platform/middleware"
	"relieflink/pkg/domain"
	dErrors "relieflink/pkg/domain-errors"
	"relieflink/pkg/platform/httputil"
)

func (h *Handler) handleRecordDistribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	volunteer, ok := GetVolunteer(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "volunteer identity missing"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RecordDistributionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	commitment, err := domain.ParseCommitment(req.Commitment)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid commitment"))
		return
	}
	aidType, err := domain.ParseAidType(req.AidType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.distributions.Record(ctx, distribution.RecordRequest{
		Commitment:        commitment,
		AidType:           aidType,
		Quantity:          req.Quantity,
		Location:          req.Location,
		RecordedBy:        volunteer.Nullifier,
		RequestID:         requestID,
		DeviceFingerprint: device.Fingerprint(r.UserAgent()),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "distribution recording failed",
			"error", err,
			"request_id", requestID,
			"aid_type", string(aidType),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toDistributionResponse(rec))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	commitment, err := commitmentParam(r)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid commitment"))
		return
	}

	records, err := h.distributions.History(ctx, commitment)
	if err != nil {
		h.logger.WarnContext(ctx, "distribution history failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	out := make([]DistributionResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toDistributionResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, &HistoryResponse{
		Commitment: commitment.String(),
		Records:    out,
	})
}

func toDistributionResponse(rec *ledgermodels.DistributionRecord) DistributionResponse {
	return DistributionResponse{
		ID:         rec.ID,
		Commitment: rec.FamilyCommitment.String(),
		AidType:    string(rec.AidType),
		Quantity:   rec.Quantity,
		Location:   rec.Location,
		Timestamp:  rec.Timestamp,
		RecordedBy: rec.RecordedBy,
	}
}
