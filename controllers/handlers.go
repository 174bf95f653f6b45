package controllers

import (
	"github.com/Govind-619/LinkSphere/services"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/gin-gonic/gin"
)

// Handlers binds the HTTP surface to the services
type Handlers struct {
	Discounts   *services.DiscountService
	Commissions *services.CommissionService
	Billing     *services.BillingService
}

// workspaceContext reads the caller scope or aborts with 401
func workspaceContext(c *gin.Context) (utils.WorkspaceContext, bool) {
	wctx, ok := utils.GetWorkspaceContext(c)
	if !ok {
		utils.LogError("Workspace context not found on %s", c.FullPath())
		utils.Unauthorized(c, utils.ErrUnauthorized)
		return wctx, false
	}
	return wctx, true
}
