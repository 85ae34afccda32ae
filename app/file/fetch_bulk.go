package file

import (
	"bitwise74/share-api/app/httperr"
	"bitwise74/share-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FileFetchBulk lists the caller's files together with their quota
func FileFetchBulk(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	q, ok := listQuery(c, requestID)
	if !ok {
		return
	}

	files, total, err := d.Files.List(c.Request.Context(), userID, q)
	if err != nil {
		httperr.Abort(c, err, "Failed to list user files")
		return
	}

	quota, err := d.Ledger.Usage(c.Request.Context(), userID)
	if err != nil {
		httperr.Abort(c, err, "Failed to fetch quota")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files": files,
		"total": total,
		"page":  q.Page,
		"limit": q.Limit,
		"quota": quota,
	})
}
