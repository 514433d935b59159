package titlestatus

import (
	"time"

	"github.com/google/uuid"
)

const (
	queryType = "TitleStatus"
)

// Query represents the intent to query the circulation status of a title.
type Query struct {
	TitleID uuid.UUID
	AsOf    time.Time
}

// BuildQuery creates a new Query for the provided title ID.
func BuildQuery(titleID uuid.UUID, asOf time.Time) Query {
	return Query{
		TitleID: titleID,
		AsOf:    asOf,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
