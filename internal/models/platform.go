package models

import "time"

// Post is the engine's view of a top-level platform item.
type Post struct {
	ID        int       `json:"id"`
	AuthorID  int       `json:"author_id"`
	Community string    `json:"community"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Response is a comment or a nested reply. ParentID is zero for top-level
// comments and the parent response's ID otherwise.
type Response struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	ParentID  int       `json:"parent_id,omitempty"`
	AuthorID  int       `json:"author_id"`
	Body      string    `json:"body"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// PlatformState is the per-agent snapshot a decision is made from. It is
// assembled by the lifecycle loop before fan-out and read-only inside the
// decision engine.
type PlatformState struct {
	// FocalPost is the single item currently in front of the agent, nil
	// when the feed is empty.
	FocalPost *Post `json:"focal_post,omitempty"`
	// Responses are the top-level responses on the focal post, all authors.
	Responses []Response `json:"responses,omitempty"`
	// PendingReplies are responses addressed to this agent's own content on
	// the focal post that it has not answered yet.
	PendingReplies []Response `json:"pending_replies,omitempty"`
	// HasResponded reports whether this agent already has a top-level
	// response on the focal post.
	HasResponded bool `json:"has_responded"`
	// RepliedTo holds the ids of responses on the focal post this agent
	// has already answered with a nested reply.
	RepliedTo map[int]bool `json:"replied_to,omitempty"`
}

// Community is a platform community summary.
type Community struct {
	Name        string `json:"name"`
	PostCount   int    `json:"post_count"`
	Subscribers int    `json:"subscribers"`
}
