package http

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authgate/internal/entities"
)

// SecurityLogReader lists recorded security events.
type SecurityLogReader interface {
	List(ctx context.Context, limit int) ([]entities.SecurityLogEntry, error)
}

type AuditController struct {
	securityLog SecurityLogReader
}

func NewAuditController(securityLog SecurityLogReader) *AuditController {
	return &AuditController{
		securityLog: securityLog,
	}
}

// List returns the most recent security events, newest first.
// GET /session/logs, GET /auth/admin-logs-jwt
func (ac *AuditController) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	logs, err := ac.securityLog.List(c.Request.Context(), limit)
	if err != nil {
		log.Printf("[AUDIT] failed to list security events: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
