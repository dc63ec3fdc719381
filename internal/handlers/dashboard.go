package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard serves the current aggregator snapshot. The snapshot is
// maintained in memory off the change feed, so this read never touches
// the database.
func (h HandlerSet) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.aggregator.Snapshot())
}
