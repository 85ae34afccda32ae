package file

import (
	"bitwise74/share-api/app/httperr"
	"bitwise74/share-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxBulkDelete = 100

// FileDelete removes a file, its links and credits the owner's quota
func FileDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	id, ok := fileID(c, requestID)
	if !ok {
		return
	}

	if _, err := d.Files.RemoveOwned(c.Request.Context(), userID, id); err != nil {
		httperr.Abort(c, err, "Failed to delete file")
		return
	}

	quota, err := d.Ledger.Usage(c.Request.Context(), userID)
	if err != nil {
		httperr.Abort(c, err, "Failed to fetch quota")
		return
	}

	c.JSON(http.StatusOK, quota)
}

type bulkDeleteBody struct {
	IDs []uint `json:"ids"`
}

func FileBulkDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data bulkDeleteBody
	if err := c.ShouldBindJSON(&data); err != nil || len(data.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Request body must contain a list of file ids",
			"requestID": requestID,
		})
		return
	}

	if len(data.IDs) > maxBulkDelete {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Too many files in one request",
			"requestID": requestID,
		})
		return
	}

	res, err := d.Files.RemoveMany(c.Request.Context(), userID, data.IDs)
	if err != nil {
		httperr.Abort(c, err, "Failed to bulk delete files")
		return
	}

	c.JSON(http.StatusOK, res)
}
