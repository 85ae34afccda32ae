package share

import (
	"bitwise74/share-api/app/httperr"
	"bitwise74/share-api/internal"
	"bitwise74/share-api/internal/service"
	"bitwise74/share-api/pkg/util"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ShareDownload delivers the shared file as an attachment. The object is
// opened before the download is counted so a storage failure never uses one
// up. Losing the race for the last download ends in a 410
func ShareDownload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	pass, ok := password(c)
	if !ok {
		return
	}

	g, err := d.Access.Evaluate(ctx, c.Param("code"), pass)
	if err != nil {
		httperr.Abort(c, err, "Failed to evaluate share link")
		return
	}

	body, err := d.Files.Open(ctx, g.File)
	if err != nil {
		httperr.Abort(c, err, "Failed to open shared file")
		return
	}
	defer body.Close()

	link, err := d.Links.RecordDownload(ctx, g.Link)
	if err != nil {
		httperr.Abort(c, err, "Failed to record download")
		return
	}
	g.Link = link

	c.DataFromReader(http.StatusOK, g.File.Size, g.File.MimeType, body, map[string]string{
		"Content-Disposition":    fmt.Sprintf(`attachment; filename="%s"`, util.DispositionFilename(g.File.OriginalName)),
		"Cache-Control":          "no-store",
		"X-Content-Type-Options": "nosniff",
	})

	err = d.Analytics.RecordDownload(ctx, service.DownloadEvent{
		Grant:     g,
		Bytes:     g.File.Size,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		zap.L().Warn("Failed to record download analytics", zap.Error(err), zap.String("requestID", requestID))
	}
}
