package file

import (
	"bitwise74/share-api/app/httperr"
	"bitwise74/share-api/internal"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func FileSearch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	searchQuery := strings.TrimSpace(c.Query("query"))
	if searchQuery == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No search query provided",
			"requestID": requestID,
		})
		return
	}

	q, ok := listQuery(c, requestID)
	if !ok {
		return
	}
	q.Search = searchQuery

	files, total, err := d.Files.List(c.Request.Context(), userID, q)
	if err != nil {
		httperr.Abort(c, err, "Failed to find files by search query")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files": files,
		"total": total,
	})
}
