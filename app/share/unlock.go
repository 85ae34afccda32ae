package share

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type unlockBody struct {
	Password string `json:"password"`
}

// password reads the optional password of a share request. An empty body is
// the same as no password
func password(c *gin.Context) (string, bool) {
	var data unlockBody

	if err := c.ShouldBindJSON(&data); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": c.MustGet("requestID").(string),
		})
		return "", false
	}

	return data.Password, true
}
