package blobstore

// NotFoundError reports a missing blob by name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "blob not found: " + e.Name
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
