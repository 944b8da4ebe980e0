package garage

import "fmt"

// CreateGarageRequest is the body of a request to register a garage
type CreateGarageRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GarageResponse is the profile of a garage
type GarageResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func (r GarageResponse) String() string {
	return fmt.Sprintf("garage %s (%d)", r.Username, r.ID)
}
