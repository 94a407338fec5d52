package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devlongs/solesub"
	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/types"
)

type paymentRequest struct {
	Payment types.Money `json:"payment"`
}

type transferRequest struct {
	To string `json:"to" binding:"required"`
}

type priceRequest struct {
	Price types.Money `json:"price"`
}

type durationRequest struct {
	Seconds int64 `json:"seconds" binding:"required"`
}

type withdrawRequest struct {
	To string `json:"to" binding:"required"`
}

type membershipResponse struct {
	*credential.Credential
	Status    credential.Status `json:"status"`
	Valid     bool              `json:"valid"`
	Remaining int64             `json:"remaining_seconds"`
}

func (h *Handler) membership(c *credential.Credential) membershipResponse {
	now := h.ledger.Now()
	return membershipResponse{
		Credential: c,
		Status:     c.Status(now),
		Valid:      c.ValidAt(now),
		Remaining:  int64(c.Remaining(now) / time.Second),
	}
}

func (h *Handler) issue(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payment is required")
		return
	}
	cred, err := h.ledger.Issue(c.Request.Context(), callerFrom(c), req.Payment)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.membership(cred))
}

func (h *Handler) renew(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payment is required")
		return
	}
	cred, err := h.ledger.Renew(c.Request.Context(), callerFrom(c), req.Payment)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.membership(cred))
}

func (h *Handler) getMembership(c *gin.Context) {
	cred, err := h.ledger.CredentialOf(c.Request.Context(), c.Param("holder"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.membership(cred))
}

func (h *Handler) getValidity(c *gin.Context) {
	holder := c.Param("holder")
	ok, err := h.ledger.IsValid(c.Request.Context(), holder)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holder": holder, "valid": ok})
}

// A malformed identifier cannot resolve to a holder.
func credentialID(c *gin.Context) (uint64, bool) {
	credID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, solesub.ErrInvalidIdentifier)
		return 0, false
	}
	return credID, true
}

func (h *Handler) revoke(c *gin.Context) {
	credID, ok := credentialID(c)
	if !ok {
		return
	}
	if err := h.ledger.Revoke(c.Request.Context(), credID, callerFrom(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) transfer(c *gin.Context) {
	credID, ok := credentialID(c)
	if !ok {
		return
	}
	var req transferRequest
	_ = c.ShouldBindJSON(&req) //nolint:errcheck // the transfer fails regardless of the body
	caller := callerFrom(c)
	writeError(c, h.ledger.Transfer(c.Request.Context(), credID, caller, req.To, caller))
}

func (h *Handler) getPlan(c *gin.Context) {
	p, err := h.ledger.Plan(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"price":            p.Price,
		"duration_seconds": int64(p.Duration / time.Second),
		"updated_at":       p.UpdatedAt,
	})
}

func (h *Handler) setPrice(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "price is required")
		return
	}
	if err := h.ledger.SetPrice(c.Request.Context(), callerFrom(c), req.Price); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"price": req.Price})
}

func (h *Handler) setDuration(c *gin.Context) {
	var req durationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "seconds is required")
		return
	}
	d := time.Duration(req.Seconds) * time.Second
	if err := h.ledger.SetDuration(c.Request.Context(), callerFrom(c), d); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"duration_seconds": req.Seconds})
}

func (h *Handler) pause(c *gin.Context) {
	if err := h.ledger.Pause(c.Request.Context(), callerFrom(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

func (h *Handler) unpause(c *gin.Context) {
	if err := h.ledger.Unpause(c.Request.Context(), callerFrom(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

func (h *Handler) withdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "to is required")
		return
	}
	w, err := h.ledger.Withdraw(c.Request.Context(), callerFrom(c), req.To)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) balance(c *gin.Context) {
	caller := callerFrom(c)
	if err := h.ledger.Authorize(c.Request.Context(), caller); err != nil {
		writeError(c, err)
		return
	}
	bal, err := h.ledger.Balance(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": bal})
}
