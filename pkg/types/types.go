// Package types defines the shared types used across all Slidecast packages.
//
// These types form the lingua franca between the generation pipeline, the
// slideshow player, the chat session, and the gateway. They are intentionally
// minimal: each package defines its own domain types, but cross-cutting data
// structures live here to avoid circular imports.
package types

import "time"

// Slide is one unit of a visual explainer: the image shown, the caption
// narrated, and the search phrase that produced the image.
type Slide struct {
	// Image is the resolved image URL. Never empty after resolution.
	Image string `json:"image"`

	// Caption is the narrated text for this slide, at most 120 characters.
	Caption string `json:"caption"`

	// Keywords holds the search phrase behind Image as a single-element list.
	// Empty when no phrase was extracted for this slide.
	Keywords []string `json:"keywords"`
}

// Role distinguishes the two sides of a chat conversation.
type Role string

const (
	// RoleUser marks a message typed by the person asking.
	RoleUser Role = "user"

	// RoleBot marks a message produced by the explainer pipeline.
	RoleBot Role = "bot"
)

// Message is one entry in a chat transcript. Bot messages that answered a
// question successfully carry the generated slideshow.
type Message struct {
	// ID uniquely identifies the message within its session.
	ID string `json:"id"`

	// Role is who authored the message.
	Role Role `json:"role"`

	// Content is the message text. For bot messages this is either a
	// conversational summary of the generated guide or an apology.
	Content string `json:"content"`

	// Timestamp is when the message was appended to the transcript.
	Timestamp time.Time `json:"timestamp"`

	// Slides is the generated slideshow, nil for user messages and for bot
	// messages that report a failure.
	Slides []Slide `json:"slides,omitempty"`
}
