package types

// Status is a type for the lifecycle status of a row in the database.
// This is used to soft-delete and archive rows without losing history.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)

func (s Status) String() string {
	return string(s)
}
