package model

import "time"

// Post is a community question
type Post struct {
	ID               int64     `json:"id"`
	AuthorID         int64     `json:"author_id"`
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	CreditPoints     int       `json:"credit_points"`
	AcceptedAnswerID *int64    `json:"accepted_answer_id,omitempty"`
	AnswerCount      int       `json:"answer_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// HasAcceptedAnswer checks if an answer was already accepted
func (p *Post) HasAcceptedAnswer() bool {
	return p.AcceptedAnswerID != nil
}

// Answer is a reply to a post
type Answer struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"post_id"`
	AuthorID   int64     `json:"author_id"`
	Body       string    `json:"body"`
	IsAccepted bool      `json:"is_accepted"`
	CreatedAt  time.Time `json:"created_at"`
}

const MaxCreditPoints = 100

type PostView struct {
	*Post
	Author UserView `json:"author"`
}

type AnswerView struct {
	*Answer
	Author UserView `json:"author"`
}

type PostDetails struct {
	PostView
	Answers []AnswerView `json:"answers"`
}
