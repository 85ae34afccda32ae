// Package jobs exposes the reclamation sweeps to an external scheduler
package jobs

import (
	"bitwise74/share-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Cleanup runs a full reclamation pass and reports what it removed
func Cleanup(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	report, err := d.Reclaimer.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Reclamation failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, report)
}

// CleanupExpiredLinks only deletes links, files are left alone
func CleanupExpiredLinks(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	n, err := d.Reclaimer.SweepExpiredLinks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Expired link sweep failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"expiredLinksDeleted": n,
	})
}
