package file

import (
	"bitwise74/share-api/app/httperr"
	"bitwise74/share-api/internal"
	"bitwise74/share-api/pkg/util"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FilePreview streams a file to its owner. Types that can't be shown inline
// are refused
func FilePreview(c *gin.Context, d *internal.Deps) {
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

	if !util.InlineType(f.MimeType) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error":     "Preview is not available for this file type",
			"requestID": requestID,
		})
		return
	}

	body, err := d.Files.Open(c.Request.Context(), f)
	if err != nil {
		httperr.Abort(c, err, "Failed to open stored file")
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, f.Size, f.MimeType, body, map[string]string{
		"Content-Disposition":    fmt.Sprintf(`inline; filename="%s"`, util.DispositionFilename(f.OriginalName)),
		"Cache-Control":          "private, max-age=60",
		"X-Content-Type-Options": "nosniff",
	})

	if err := c.Errors.Last(); err != nil {
		zap.L().Warn("Preview stream interrupted", zap.Error(err), zap.String("requestID", requestID))
	}
}
