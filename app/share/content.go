package share

import (
	"bitwise74/share-api/app/httperr"
	"bitwise74/share-api/internal"
	"bitwise74/share-api/pkg/util"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ShareContent streams a shared file inline for previews, whatever its type.
// nosniff keeps browsers from executing what they can't display. Previews
// pass the same checks as a download but never count as one
func ShareContent(c *gin.Context, d *internal.Deps) {
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

	c.DataFromReader(http.StatusOK, g.File.Size, g.File.MimeType, body, map[string]string{
		"Content-Disposition":    fmt.Sprintf(`inline; filename="%s"`, util.DispositionFilename(g.File.OriginalName)),
		"Cache-Control":          "private, max-age=60",
		"X-Content-Type-Options": "nosniff",
	})
}
