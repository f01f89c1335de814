// Package model defines the domain types shared across the application.
package model

import "time"

// Event is a read-only projection of an upstream catalog item, repurposed
// as an event for display and registration. Events are immutable once
// fetched and live only in the in-memory query cache.
type Event struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand"`
	CreatedAt   time.Time `json:"created_at"`
	Price       float64   `json:"price"`
}

// RegisteredEvent is one row of the hosted registered_events relation:
// a user's registration for an event, with a service-assigned ID and
// server-assigned registration timestamp.
type RegisteredEvent struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	EventTitle       string    `json:"event_title"`
	EventDescription string    `json:"event_description"`
	EventImage       string    `json:"event_image"`
	RegisteredAt     time.Time `json:"registered_at"`
}

// User is the read reference the app holds for the authenticated user.
// Identity is owned by the hosted auth service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SignInRequest is the payload posted to the auth page.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
