package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devlongs/solesub"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{solesub.ErrInsufficientFee, http.StatusPaymentRequired, "insufficient_fee"},
	{solesub.ErrAlreadyEnrolled, http.StatusConflict, "already_enrolled"},
	{solesub.ErrNoCredential, http.StatusNotFound, "no_credential"},
	{solesub.ErrInvalidIdentifier, http.StatusNotFound, "invalid_identifier"},
	{solesub.ErrCredentialNotFound, http.StatusNotFound, "invalid_identifier"},
	{solesub.ErrTransferNotAllowed, http.StatusForbidden, "transfer_not_allowed"},
	{solesub.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{solesub.ErrPaused, http.StatusServiceUnavailable, "paused"},
	{solesub.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{solesub.ErrNothingToWithdraw, http.StatusConflict, "nothing_to_withdraw"},
	{solesub.ErrNotStarted, http.StatusServiceUnavailable, "not_started"},
}

// statusFor maps a ledger error to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)

	body := gin.H{"error": err.Error(), "code": code}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}

	var feeErr *solesub.InsufficientFeeError
	if errors.As(err, &feeErr) {
		body["required"] = feeErr.Required
		body["provided"] = feeErr.Provided
	}

	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": "invalid_input"})
}
