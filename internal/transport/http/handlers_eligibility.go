package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"relieflink/internal/eligibility"
	"relieflink/internal/platform/middleware"
	"relieflink/pkg/domain"
	dErrors "relieflink/pkg/domain-errors"
	"relieflink/pkg/platform/httputil"
)

func (h *Handler) handleEligibilityMatrix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	commitment, err := commitmentParam(r)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid commitment"))
		return
	}

	now := h.now()
	decisions, err := h.eligibility.CheckAll(ctx, commitment, now)
	if err != nil {
		h.logger.WarnContext(ctx, "eligibility matrix failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	out := make([]DecisionResponse, 0, len(decisions))
	for _, decision := range decisions {
		out = append(out, toDecisionResponse(decision))
	}
	httputil.WriteJSON(w, http.StatusOK, &EligibilityMatrixResponse{
		Commitment: commitment.String(),
		CheckedAt:  now,
		Decisions:  out,
	})
}

func (h *Handler) handleEligibilityCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	commitment, err := commitmentParam(r)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid commitment"))
		return
	}

	aidType, err := domain.ParseAidType(chi.URLParam(r, "aidType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	decision, err := h.eligibility.Check(ctx, commitment, aidType, h.now())
	if err != nil {
		h.logger.WarnContext(ctx, "eligibility check failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toDecisionResponse(decision))
}

func toDecisionResponse(decision eligibility.Decision) DecisionResponse {
	return DecisionResponse{
		AidType:          string(decision.AidType),
		Eligible:         decision.Eligible,
		WaitMs:           decision.Wait.Milliseconds(),
		LastDistribution: decision.LastDistribution,
	}
}
