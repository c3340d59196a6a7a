package handler

import (
	"net/http"

	"orderlyflow/internal/api"
	"orderlyflow/internal/logger"
	"orderlyflow/internal/middleware"
	"orderlyflow/internal/repository"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	orgRepo repository.OrganizationRepositoryInterface
	log     *logger.Logger
}

func NewMemberHandler(orgRepo repository.OrganizationRepositoryInterface, log *logger.Logger) *MemberHandler {
	return &MemberHandler{orgRepo: orgRepo, log: logger.Or(log).WithComponent("handler")}
}

// List returns the members of the caller's own organization.
func (h *MemberHandler) List(c *gin.Context) {
	orgID := c.Param("id")
	if orgID != middleware.OrganizationID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	rows, err := h.orgRepo.ListMembers(c.Request.Context(), orgID)
	if err != nil {
		h.log.WithError(err).Errorw("Failed to retrieve members", "organization_id", orgID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}
	members := make([]api.Member, len(rows))
	for i := range rows {
		members[i] = rows[i].ToAPI()
	}
	c.JSON(http.StatusOK, members)
}
