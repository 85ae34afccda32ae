package file

import (
	"bitwise74/share-api/app/httperr"
	"bitwise74/share-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

func FileFetch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	id, ok := fileID(c, requestID)
	if !ok {
		return
	}

	f, err := d.Files.Get(c.Request.Context(), userID, id)
	if err != nil {
		httperr.Abort(c, err, "Failed to fetch file from db")
		return
	}

	c.JSON(http.StatusOK, f)
}
