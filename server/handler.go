// Package server exposes the unlock flow over HTTP, keeping the wire contract
// of the original download endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/ratelimit"

	paygate "github.com/paygate-labs/paygate"
	"github.com/paygate-labs/paygate/logger"
	"github.com/paygate-labs/paygate/release"
	"github.com/paygate-labs/paygate/store"
	"github.com/paygate-labs/paygate/types"
)

// Gateway is the unlock capability the handler needs.
type Gateway interface {
	Unlock(ctx context.Context, resourceID string, claim *types.PaymentClaim) (*paygate.Outcome, error)
}

// DownloadHandler serves /api/download/{fileId}.
//
// The payment reference is read from the X-Payment header; a txHash field in
// a JSON body is accepted as a fallback, and the header wins when both are
// present.
type DownloadHandler struct {
	gateway Gateway
	log     logger.Logger

	// limiter paces requests that will hit the chain, protecting the RPC
	// node from a flood of verification attempts.
	limiter ratelimit.Limiter
}

// NewDownloadHandler creates the handler. verifyRPS caps chain-touching
// requests per second; zero or negative disables the cap.
func NewDownloadHandler(gateway Gateway, log logger.Logger, verifyRPS int) *DownloadHandler {
	if log == nil {
		log = logger.NoopLogger{}
	}
	limiter := ratelimit.NewUnlimited()
	if verifyRPS > 0 {
		limiter = ratelimit.New(verifyRPS)
	}
	return &DownloadHandler{gateway: gateway, log: log, limiter: limiter}
}

type challengeOffer struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Recipient string `json:"recipient"`
	Network   string `json:"network"`
}

type challengeBody struct {
	Error  string           `json:"error"`
	Detail string           `json:"detail"`
	Offers []challengeOffer `json:"offers"`
}

func (h *DownloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	resourceID := strings.TrimPrefix(r.URL.Path, "/api/download/")
	if resourceID == "" || strings.Contains(resourceID, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
		return
	}

	claim := h.extractClaim(r)
	if claim != nil {
		h.limiter.Take()
	}

	outcome, err := h.gateway.Unlock(r.Context(), resourceID, claim)
	if err != nil {
		h.writeError(w, resourceID, err)
		return
	}

	switch outcome.Status {
	case paygate.StatusChallenge:
		h.writeChallenge(w, outcome.Offer)
	case paygate.StatusRefused:
		h.writeRefusal(w, outcome.Result)
	case paygate.StatusReleased:
		h.writeBlob(w, outcome.Blob)
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Database error"})
	}
}

// extractClaim pulls the payment reference from the request, header first.
func (h *DownloadHandler) extractClaim(r *http.Request) *types.PaymentClaim {
	if ref := r.Header.Get("X-Payment"); ref != "" {
		return &types.PaymentClaim{Reference: ref}
	}

	if r.Body == nil {
		return nil
	}
	var body types.PaymentClaim
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Reference == "" {
		return nil
	}
	return &body
}

func (h *DownloadHandler) writeChallenge(w http.ResponseWriter, offer types.Offer) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf("x402 token=%q, recipient=%q",
		offer.Price+" "+offer.Currency, offer.Recipient))
	writeJSON(w, http.StatusPaymentRequired, challengeBody{
		Error:  "Payment Required",
		Detail: "Purchase access via x402 protocol",
		Offers: []challengeOffer{{
			Amount:    offer.Price,
			Currency:  offer.Currency,
			Recipient: offer.Recipient,
			Network:   offer.Network.String(),
		}},
	})
}

func (h *DownloadHandler) writeRefusal(w http.ResponseWriter, result *types.VerificationResult) {
	switch result.Reason {
	case types.ReasonWrongRecipient, types.ReasonInsufficientAmount:
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error": "Payment Invalid: Wrong recipient or insufficient funds",
		})
	case types.ReasonAlreadyRedeemed:
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error": "Payment Invalid: reference already redeemed",
		})
	default:
		// malformed_reference, lookup_failed, unsupported_network: the
		// reference could not be resolved on-chain at all.
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Transaction lookup failed",
		})
	}
}

func (h *DownloadHandler) writeBlob(w http.ResponseWriter, blob *release.Blob) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", blob.Filename))
	w.Header().Set("X-Payment-Status", "verified")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Content)
}

func (h *DownloadHandler) writeError(w http.ResponseWriter, resourceID string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
	case errors.Is(err, release.ErrCorruptedResource):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "File corrupted on server"})
	default:
		h.log.Error("unlock failed", map[string]any{
			"resourceId": resourceID,
			"error":      err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Database error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
