package handler

import (
	"time"

	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// parseIDParam reads a uuid path parameter, answering 400 when it is malformed
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondValidationError(c, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// uuidField is a request field to parse into dst
type uuidField struct {
	name string
	raw  string
	dst  *uuid.UUID
}

// parseUUIDs fills every field it can and returns one problem per malformed value
func parseUUIDs(fields ...uuidField) []string {
	var problems []string
	for _, f := range fields {
		id, err := uuid.Parse(f.raw)
		if err != nil {
			problems = append(problems, f.name+" must be a UUID")
			continue
		}
		*f.dst = id
	}
	return problems
}

func parseDateRange(rawFrom, rawTo string) (from, to time.Time, problems []string) {
	from, err := clock.ParseDate(rawFrom)
	if err != nil {
		problems = append(problems, "from must be a YYYY-MM-DD date")
	}
	to, err = clock.ParseDate(rawTo)
	if err != nil {
		problems = append(problems, "to must be a YYYY-MM-DD date")
	}
	return from, to, problems
}
