package model

import "time"

// FollowRequest represents one user's request to connect with another
type FollowRequest struct {
	ID         int64      `json:"id"`
	FromUserID int64      `json:"from_user_id"`
	ToUserID   int64      `json:"to_user_id"`
	Status     string     `json:"status"` // 'pending', 'accepted', 'rejected', 'cancelled', 'expired'
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// Request status constants
const (
	RequestStatusPending   = "pending"
	RequestStatusAccepted  = "accepted"
	RequestStatusRejected  = "rejected"
	RequestStatusCancelled = "cancelled"
	RequestStatusExpired   = "expired"
)

// IsPending checks if request is pending
func (r *FollowRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// IsAccepted checks if request is accepted
func (r *FollowRequest) IsAccepted() bool {
	return r.Status == RequestStatusAccepted
}

// Suggestion statuses as seen by the roster
const (
	SuggestionNotFollowed = "not_followed"
	SuggestionRequested   = "requested"
	SuggestionConnected   = "connected"
)

// Suggestion is a user the viewer may connect with.
type Suggestion struct {
	User   UserView `json:"user"`
	Status string   `json:"status"`
	// RequestID is set when Status is "requested".
	RequestID *int64 `json:"request_id,omitempty"`
}

// PendingRequest is an incoming request together with the requester's view.
type PendingRequest struct {
	Request *FollowRequest `json:"request"`
	From    UserView       `json:"from"`
}

// OutgoingRequest is a request the viewer has sent.
type OutgoingRequest struct {
	Request *FollowRequest `json:"request"`
	To      UserView       `json:"to"`
}

// FollowResult is the authoritative outcome of a follow command.
type FollowResult struct {
	Status     string         `json:"status"` // "requested" or "connected"
	Request    *FollowRequest `json:"request"`
	Connection *Connection    `json:"connection,omitempty"`
}
