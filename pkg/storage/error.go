package storage

// NotFoundError is returned when a revision doesn't exist in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "revision not found"
	}

	return "revision not found: " + e.ID
}

// CycleError is returned when parent links loop back on themselves.
type CycleError struct {
	ID string
}

func (e CycleError) Error() string {
	return "revision ancestry cycles at " + e.ID
}
