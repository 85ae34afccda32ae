package file

import (
	"bitwise74/share-api/internal/service"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxLimit = 250

// listQuery reads page, limit, sort and folder from the query string. On a
// bad value the error response is already written
func listQuery(c *gin.Context, requestID string) (service.ListQuery, bool) {
	var q service.ListQuery

	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Page must be a non-negative number",
			"requestID": requestID,
		})
		return q, false
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > maxLimit {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Limit must be between 1 and 250",
			"requestID": requestID,
		})
		return q, false
	}

	sort := strings.ToLower(c.DefaultQuery("sort", "newest"))
	if _, ok := service.FileSortOrders[sort]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid sorting option",
			"requestID": requestID,
		})
		return q, false
	}

	q.Page = page
	q.Limit = limit
	q.Sort = sort
	q.Folder = c.Query("folder")

	return q, true
}

// fileID parses the :id path parameter
func fileID(c *gin.Context, requestID string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid file ID",
			"requestID": requestID,
		})
		return 0, false
	}

	return uint(id), true
}
