package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const staffIDHeader = "X-Staff-Id"

func parseIDParam(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, newValidationError(name, "invalid_"+name, "invalid "+name)
	}
	return id, nil
}

func parseID(field, raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, newValidationError(field, "invalid_"+field, "invalid "+field)
	}
	return id, nil
}

// actorID resolves the staff member performing the request from the
// X-Staff-Id header. Mutations refuse requests without one.
func actorID(c *gin.Context) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.GetHeader(staffIDHeader))
	if raw == "" {
		return 0, newValidationError("staff_id", "staff_id_required", "missing "+staffIDHeader+" header")
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, newValidationError("staff_id", "invalid_staff_id", "invalid "+staffIDHeader+" header")
	}
	return id, nil
}
