// Package link holds the owner side of share links
package link

import (
	"bitwise74/share-api/app/httperr"
	"bitwise74/share-api/internal"
	"bitwise74/share-api/internal/model"
	"bitwise74/share-api/internal/service"
	"bitwise74/share-api/pkg/validators"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type createBody struct {
	FileID       uint   `json:"fileId"`
	Password     string `json:"password"`
	ExpiryHours  *int   `json:"expiryHours"`
	MaxDownloads *int64 `json:"maxDownloads"`
}

type linkResponse struct {
	ID           uint      `json:"id"`
	Code         string    `json:"code"`
	URLPath      string    `json:"urlPath"`
	ExpiresAt    time.Time `json:"expiresAt"`
	HasPassword  bool      `json:"hasPassword"`
	MaxDownloads *int64    `json:"maxDownloads"`
}

func SharePath(code string) string {
	return "/s/" + code
}

func toResponse(l *model.ShareLink) linkResponse {
	return linkResponse{
		ID:           l.ID,
		Code:         l.Code,
		URLPath:      SharePath(l.Code),
		ExpiresAt:    l.ExpiresAt.UTC(),
		HasPassword:  l.HasPassword,
		MaxDownloads: l.MaxDownloads,
	}
}

func linkID(c *gin.Context, requestID string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid link ID",
			"requestID": requestID,
		})
		return 0, false
	}

	return uint(id), true
}

func LinkCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data createBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.FileID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "fileId is required",
			"requestID": requestID,
		})
		return
	}

	if err := validators.LinkPasswordValidator(data.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	l, err := d.Links.Create(c.Request.Context(), userID, data.FileID, service.LinkOptions{
		Password:     data.Password,
		ExpiryHours:  data.ExpiryHours,
		MaxDownloads: data.MaxDownloads,
	})
	if err != nil {
		httperr.Abort(c, err, "Failed to create share link")
		return
	}

	c.JSON(http.StatusCreated, toResponse(l))
}

func LinkList(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	links, err := d.Links.List(c.Request.Context(), userID)
	if err != nil {
		httperr.Abort(c, err, "Failed to list share links")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"links": links,
	})
}

type updateBody struct {
	Action      string `json:"action"`
	ExpiryHours int    `json:"expiryHours"`
}

// LinkUpdate runs one of the extend, regenerate or revoke actions
func LinkUpdate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)
	ctx := c.Request.Context()

	id, ok := linkID(c, requestID)
	if !ok {
		return
	}

	var data updateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	switch data.Action {
	case "extend":
		l, err := d.Links.Extend(ctx, userID, id, data.ExpiryHours)
		if err != nil {
			httperr.Abort(c, err, "Failed to extend share link")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"expiresAt": l.ExpiresAt,
			"link":      toResponse(l),
		})
	case "regenerate":
		l, err := d.Links.RegenerateCode(ctx, userID, id)
		if err != nil {
			httperr.Abort(c, err, "Failed to regenerate share code")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"code":    l.Code,
			"urlPath": SharePath(l.Code),
		})
	case "revoke":
		if err := d.Links.Revoke(ctx, userID, id); err != nil {
			httperr.Abort(c, err, "Failed to revoke share link")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"revoked": true,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Action must be one of extend, regenerate or revoke",
			"requestID": requestID,
		})
	}
}

func LinkDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	id, ok := linkID(c, requestID)
	if !ok {
		return
	}

	if err := d.Links.Revoke(c.Request.Context(), userID, id); err != nil {
		httperr.Abort(c, err, "Failed to revoke share link")
		return
	}

	c.Status(http.StatusNoContent)
}
