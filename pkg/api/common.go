package api

import "time"

// Tenant identifies the owner of a resource.
type Tenant string

// Resource holds the fields shared by all persisted resources.
type Resource struct {
	ID        string    `json:"id"`
	Tenant    Tenant    `json:"tenant,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref is a reference to another resource by ID.
type Ref struct {
	ID string `json:"id" validate:"required"`
}

// HRef is a hyperlink to a resource or a page of resources.
type HRef struct {
	Href string `json:"href"`
}

// Page carries pagination metadata for list responses.
type Page struct {
	First      *HRef `json:"first,omitempty"`
	Next       *HRef `json:"next,omitempty"`
	Limit      int   `json:"limit"`
	TotalCount int   `json:"total_count"`
}

// MessageInfo represents a message surfaced to the caller together
// with its stable message code.
type MessageInfo struct {
	Message     string `json:"message"`
	MessageCode string `json:"message_code"`
}
