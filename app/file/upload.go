package file

import (
	"bitwise74/share-api/app/httperr"
	"bitwise74/share-api/internal"
	"bitwise74/share-api/internal/service"
	"bitwise74/share-api/pkg/validators"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func FileUpload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "Request body size exceeds limit",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})

		zap.L().Debug("Failed to read multipart file", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	code, up, err := validators.FileValidator(fh, d.Config.Upload.MaxSize, d.Config.Upload.AllowedTypes)
	if err != nil {
		msg := err.Error()
		if code == http.StatusInternalServerError {
			msg = "Internal server error"
			zap.L().Error("Failed to validate upload", zap.String("requestID", requestID), zap.Error(err))
		}

		c.JSON(code, gin.H{
			"error":     msg,
			"requestID": requestID,
		})
		return
	}
	defer up.File.Close()

	f, err := d.Files.Upload(c.Request.Context(), service.UploadInput{
		UserID:   userID,
		Name:     up.Name,
		Folder:   c.PostForm("folder"),
		MimeType: up.MimeType,
		Size:     up.Size,
		Body:     up.File,
	})
	if err != nil {
		httperr.Abort(c, err, "Failed to upload file")
		return
	}

	c.JSON(http.StatusCreated, f)
}
