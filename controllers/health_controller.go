package controllers

import (
	"net/http"

	"github.com/Govind-619/LinkSphere/utils"
	"github.com/gin-gonic/gin"
)

// GET /healthz
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": utils.AppName,
		"version": utils.APIVersion,
	})
}
