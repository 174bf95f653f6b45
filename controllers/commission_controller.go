package controllers

import (
	"strconv"

	"github.com/Govind-619/LinkSphere/services"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// bindCommissionQuery only maps the query string. The binding rules run in
// the service after the program ownership check.
func bindCommissionQuery(c *gin.Context) (services.CommissionQuery, bool) {
	var q services.CommissionQuery
	if err := binding.MapFormWithTag(&q, c.Request.URL.Query(), "form"); err != nil {
		utils.LogDebug("Invalid commission query: %v", err)
		utils.RespondError(c, utils.BindingError(err))
		return q, false
	}
	return q, true
}

// GET /v1/commissions
func (h *Handlers) ListCommissions(c *gin.Context) {
	utils.LogInfo("ListCommissions called")
	wctx, ok := workspaceContext(c)
	if !ok {
		return
	}
	q, ok := bindCommissionQuery(c)
	if !ok {
		return
	}

	rows, err := h.Commissions.ListCommissions(c.Request.Context(), wctx, q)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.LogDebug("Returning %d commissions for program %s", len(rows), q.ProgramID)
	utils.Success(c, rows)
}

// GET /v1/commissions/count
func (h *Handlers) CountCommissions(c *gin.Context) {
	utils.LogInfo("CountCommissions called")
	wctx, ok := workspaceContext(c)
	if !ok {
		return
	}
	q, ok := bindCommissionQuery(c)
	if !ok {
		return
	}

	counts, err := h.Commissions.CountCommissions(c.Request.Context(), wctx, q)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, counts)
}

// GET /v1/commissions/export?format=xlsx|pdf
func (h *Handlers) ExportCommissions(c *gin.Context) {
	utils.LogInfo("ExportCommissions called")
	wctx, ok := workspaceContext(c)
	if !ok {
		return
	}
	q, ok := bindCommissionQuery(c)
	if !ok {
		return
	}

	file, err := h.Commissions.ExportCommissions(c.Request.Context(), wctx, q, c.DefaultQuery("format", services.FormatXLSX))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Header("Content-Length", strconv.Itoa(len(file.Data)))
	c.Data(200, file.ContentType, file.Data)
}
