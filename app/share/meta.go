// Package share serves the public side of share links. Nothing here needs an
// account
package share

import (
	"bitwise74/share-api/app/httperr"
	"bitwise74/share-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ShareMeta describes a link and its file without checking the password and
// without counting a download
func ShareMeta(c *gin.Context, d *internal.Deps) {
	g, err := d.Access.Inspect(c.Request.Context(), c.Param("code"))
	if err != nil {
		httperr.Abort(c, err, "Failed to inspect share link")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file": gin.H{
			"name":     g.File.OriginalName,
			"size":     g.File.Size,
			"mimeType": g.File.MimeType,
		},
		"link": gin.H{
			"expiresAt":     g.Link.ExpiresAt,
			"hasPassword":   g.Link.HasPassword,
			"maxDownloads":  g.Link.MaxDownloads,
			"downloadCount": g.Link.DownloadCount,
		},
	})
}
