package resource

import "encoding/json"

// ReplaceResourceDTO is the request body for PUT /resources.
type ReplaceResourceDTO struct {
	Index    *int            `json:"index"`
	Resource json.RawMessage `json:"resource"`
}

// RemoveResourceDTO is the request body for DELETE /resources.
type RemoveResourceDTO struct {
	Index *int `json:"index"`
}
