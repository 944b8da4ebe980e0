package health

import "fmt"

// Status is the health status of the service
type Status string

const (
	Healthy   Status = "healthy"
	Unhealthy Status = "unhealthy"
)

// GetHealthResponse is the response to the health request
type GetHealthResponse struct {
	Health Status `json:"health"`
}

func (r GetHealthResponse) String() string {
	return fmt.Sprintf("health %s", r.Health)
}
