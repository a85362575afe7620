package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type activityReader interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error)
}

// ActivityHandler exposes the audit trail.
type ActivityHandler struct {
	reader activityReader
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(reader activityReader) *ActivityHandler {
	return &ActivityHandler{reader: reader}
}

// Recent godoc
// @Summary Recent activity
// @Description Admins may read any user's trail; everyone else sees their own
// @Tags Observability
// @Produce json
// @Param userId query string false "User (admin only)"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /activity [get]
func (h *ActivityHandler) Recent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	userID := claims.UserID
	if claims.Role == models.RoleAdmin {
		userID = c.Query("userId")
	}
	rows, err := h.reader.ListRecent(c.Request.Context(), userID, queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity"))
		return
	}
	response.OK(c, rows)
}
