package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"moodadmin/api/internal/repository"
	"moodadmin/api/internal/service"
)

var userFilters = map[string]service.UserFilter{
	"all":        service.FilterAll,
	"created24h": service.FilterCreated24h,
	"seen24h":    service.FilterLastSeen24h,
	"active":     service.FilterActive,
	"inactive":   service.FilterInactive,
}

func (h HandlerSet) ListUsers(c *gin.Context) {
	filter, ok := userFilters[c.DefaultQuery("filter", "all")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_filter"})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.directory.ListUsers(c.Request.Context(), filter, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h HandlerSet) ToggleUserStatus(c *gin.Context) {
	deviceID := c.Param("deviceId")

	err := h.directory.ToggleStatus(c.Request.Context(), deviceID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReservedUser):
			c.JSON(http.StatusBadRequest, gin.H{"error": "reserved_document"})
		case errors.Is(err, repository.ErrAppUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status_toggled"})
}
