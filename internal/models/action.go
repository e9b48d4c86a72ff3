package models

import "time"

// ActionKind enumerates everything an agent can do on the platform.
type ActionKind string

const (
	ActionCreatePost  ActionKind = "create_post"
	ActionComment     ActionKind = "comment"
	ActionVotePost    ActionKind = "vote_post"
	ActionVoteComment ActionKind = "vote_comment"
	ActionReply       ActionKind = "reply"
)

// VoteDirection is +1 for an upvote, -1 for a downvote.
type VoteDirection int

const (
	VoteUp   VoteDirection = 1
	VoteDown VoteDirection = -1
)

// IntendedAction is the decision engine's output: a pure statement of what
// one agent wants to do this cycle. It carries target IDs only and has no
// side effects until the lifecycle loop executes it.
type IntendedAction struct {
	Kind     ActionKind `json:"kind"`
	TargetID int        `json:"target_id,omitempty"`
	// PostID is the containing post for response-level targets, so the
	// executor can rebuild thread context without guessing.
	PostID    int           `json:"post_id,omitempty"`
	Community string        `json:"community,omitempty"`
	Direction VoteDirection `json:"direction,omitempty"`
}

// ScheduledAction is an intended action the coordinator has admitted,
// stamped with execution order and delay.
type ScheduledAction struct {
	ID       string         `json:"id"`
	AgentID  string         `json:"agent_id"`
	Action   IntendedAction `json:"action"`
	Priority int            `json:"priority"`
	Delay    time.Duration  `json:"delay"`
	Reason   string         `json:"reason"`
}

// EventKind distinguishes fresh top-level content from responses.
type EventKind string

const (
	EventNewContent  EventKind = "new_content"
	EventNewResponse EventKind = "new_response"
)

// Event is a platform happening the coordinator reacts to. For response
// events ContentID is the response and PostID the post that holds it.
type Event struct {
	Kind      EventKind `json:"kind"`
	ContentID int       `json:"content_id"`
	PostID    int       `json:"post_id,omitempty"`
	Community string    `json:"community"`
	AuthorID  int       `json:"author_id"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
