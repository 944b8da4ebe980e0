package version

import "fmt"

// GetVersionResponse is the response to the version request
type GetVersionResponse struct {
	Version int `json:"version"`
}

func (r GetVersionResponse) String() string {
	return fmt.Sprintf("version %d", r.Version)
}
