package file

import (
	"bitwise74/share-api/app/httperr"
	"bitwise74/share-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

type fileEditBody struct {
	Folder *string `json:"folder"`
}

// FileEdit moves a file to another folder. That's the only edit files get
func FileEdit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	id, ok := fileID(c, requestID)
	if !ok {
		return
	}

	var data fileEditBody
	if err := c.ShouldBindJSON(&data); err != nil || data.Folder == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Request body must contain a folder",
			"requestID": requestID,
		})
		return
	}

	f, err := d.Files.Move(c.Request.Context(), userID, id, *data.Folder)
	if err != nil {
		httperr.Abort(c, err, "Failed to move file")
		return
	}

	c.JSON(http.StatusOK, f)
}
