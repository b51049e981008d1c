package httptransport

import (
	"encoding/base64"
	"net/http"

	"relieflink/internal/auth"
	"relieflink/internal/platform/middleware"
	"relieflink/pkg/platform/httputil"
)

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	// Validate guarantees the payload decodes.
	payload, _ := base64.StdEncoding.DecodeString(req.Proof)

	result, err := h.auth.Verify(ctx, auth.VerifyRequest{
		Payload:   payload,
		UserAgent: r.UserAgent(),
		RequestID: requestID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "volunteer verification failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &VerifyResponse{
		Token:       result.Token,
		Nationality: result.Claim.Nationality,
	})
}
