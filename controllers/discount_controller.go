package controllers

import (
	"net/http"

	"github.com/Govind-619/LinkSphere/services"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/gin-gonic/gin"
)

// POST /v1/programs/:programId/discounts
func (h *Handlers) CreateDiscount(c *gin.Context) {
	utils.LogInfo("CreateDiscount called")
	wctx, ok := workspaceContext(c)
	if !ok {
		return
	}

	var input services.CreateDiscountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.LogDebug("Invalid discount payload: %v", err)
		utils.RespondError(c, utils.BindingError(err))
		return
	}
	input.ProgramID = c.Param("programId")

	discount, err := h.Discounts.CreateDiscount(c.Request.Context(), wctx, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, discount)
}

// GET /v1/programs/:programId/discounts
func (h *Handlers) ListDiscounts(c *gin.Context) {
	utils.LogInfo("ListDiscounts called")
	wctx, ok := workspaceContext(c)
	if !ok {
		return
	}

	discounts, err := h.Discounts.ListDiscounts(c.Request.Context(), wctx, c.Param("programId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, discounts)
}

// GET /v1/programs/:programId/discounts/partners?discountId=
func (h *Handlers) ListDiscountPartners(c *gin.Context) {
	utils.LogInfo("ListDiscountPartners called")
	wctx, ok := workspaceContext(c)
	if !ok {
		return
	}

	partners, err := h.Discounts.ListDiscountPartners(c.Request.Context(), wctx, c.Param("programId"), c.Query("discountId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, partners)
}

// PATCH /v1/programs/:programId/discounts/:discountId
func (h *Handlers) UpdateDiscount(c *gin.Context) {
	utils.LogInfo("UpdateDiscount called")
	wctx, ok := workspaceContext(c)
	if !ok {
		return
	}

	var patch services.UpdateDiscountInput
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.RespondError(c, utils.BindingError(err))
		return
	}

	discount, err := h.Discounts.UpdateDiscount(c.Request.Context(), wctx, c.Param("programId"), c.Param("discountId"), patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, discount)
}

// DELETE /v1/programs/:programId/discounts/:discountId
func (h *Handlers) DeleteDiscount(c *gin.Context) {
	utils.LogInfo("DeleteDiscount called")
	wctx, ok := workspaceContext(c)
	if !ok {
		return
	}

	discountID := c.Param("discountId")
	if err := h.Discounts.DeleteDiscount(c.Request.Context(), wctx, c.Param("programId"), discountID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": discountID})
}
