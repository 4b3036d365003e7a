package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	detector string
}

func NewHealthHandler(detector string) *HealthHandler {
	return &HealthHandler{detector: detector}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "detector": h.detector})
}
