package handlers

import (
	"strconv"
	"strings"

	"medeasy-api-server/internal/api/middleware"
	"medeasy-api-server/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes the classified error body. Server-side failures are
// logged with their cause, which is never sent to the client.
func respondError(c *gin.Context, err error) {
	e := apperr.From(err)
	status := e.Status()
	if status >= 500 {
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": e.Message, "code": e.Code})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperr.Validation(apperr.CodeInvalidBody, "invalid request body").Wrap(err))
		return false
	}
	return true
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation(apperr.CodeInvalidBody, name+" must be a non-negative integer")
	}
	return n, nil
}

func queryFloat(c *gin.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidLocation, name+" must be a number")
	}
	return &f, nil
}

// actingRetailer resolves the retailer a request is created for. A body value
// must match the caller; an empty one means the caller.
func actingRetailer(c *gin.Context, bodyUserID string) (string, error) {
	caller := middleware.UserID(c)
	bodyUserID = strings.TrimSpace(bodyUserID)
	if bodyUserID == "" || bodyUserID == caller {
		return caller, nil
	}
	return "", apperr.Forbidden(apperr.CodeForbidden, "retailerUserId must be the signed-in user")
}
