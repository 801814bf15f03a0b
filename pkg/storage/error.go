package storage

import "fmt"

// UnsupportedDriverError is returned for an unknown storage driver name.
type UnsupportedDriverError struct {
	Name string
}

func (e UnsupportedDriverError) Error() string {
	return fmt.Sprintf("unsupported storage driver: %q", e.Name)
}
