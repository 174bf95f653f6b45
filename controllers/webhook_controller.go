package controllers

import (
	"io"
	"net/http"

	"github.com/Govind-619/LinkSphere/services"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/gin-gonic/gin"
)

// maxWebhookBody bounds the raw body read before the signature is checked
const maxWebhookBody = 1 << 20

// POST /v1/webhooks/razorpay
func (h *Handlers) RazorpayWebhook(c *gin.Context) {
	utils.LogInfo("RazorpayWebhook called")

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.BadRequest(c, "Failed to read request body", nil)
		return
	}

	outcome, err := h.Billing.HandleWebhook(c.Request.Context(), body, c.GetHeader(services.SignatureHeader))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}
