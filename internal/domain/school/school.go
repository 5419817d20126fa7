package school

import (
	"database/sql"
	"time"
)

// School is the organisational unit a coach works in.
type School struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	EmisNumber sql.NullString `json:"emis_number"`
	District   sql.NullString `json:"district"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Item is the summary shown in search results.
type Item struct {
	ID       string
	Name     string
	District string
}
