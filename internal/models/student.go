package models

// StudentRef identifies an enrolled student in the external roster.
type StudentRef struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
}

// Subject is the catalog entry consumed for display names only.
type Subject struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
