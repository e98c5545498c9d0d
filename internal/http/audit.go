package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/audit"
	"github.com/clipshelf/clipshelf/internal/entities"
)

// AuditController exposes the audit trail.
type AuditController struct {
	service *audit.Service
}

func NewAuditController(service *audit.Service) *AuditController {
	return &AuditController{service: service}
}

// GetEvents handles GET /api/audit/events with optional type filtering and
// pagination.
func (ac *AuditController) GetEvents(c *gin.Context) {
	limit, offset := parsePagination(c)

	var (
		events []entities.AuditEvent
		total  int64
		err    error
	)

	if eventType := c.Query("type"); eventType != "" {
		events, total, err = ac.service.GetEventsByType(entities.AuditEventType(eventType), limit, offset)
	} else {
		events, total, err = ac.service.GetEvents(limit, offset)
	}
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}
