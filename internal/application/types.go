package application

import "time"

// Application represents a registered service that owns a configuration
// document. Names are unique across the store.
type Application struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Configuration holds an application's configuration document.
// Each application has at most one.
type Configuration struct {
	ApplicationID string    `json:"application_id"`
	Config        Document  `json:"config"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Document is a free-form configuration payload stored as a JSON object.
type Document map[string]any

// DefaultDocument returns the document seeded for a newly created
// application, so consumers always find a config to read.
func DefaultDocument() Document {
	return Document{"name": "value"}
}
