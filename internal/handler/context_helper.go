package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/middleware"
	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

func actorID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// resolveStudentID applies the acting-for rule: students act only for themselves,
// staff must name the student.
func resolveStudentID(c *gin.Context, requested string) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleStudent {
		if claims.StudentID == "" {
			return "", appErrors.Clone(appErrors.ErrForbidden, "account has no student profile")
		}
		if requested != "" && requested != claims.StudentID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "students may only act for themselves")
		}
		return claims.StudentID, nil
	}
	if requested == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	return requested, nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func invalidPayload(err error, msg string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg)
}
