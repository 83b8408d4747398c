package model

import "time"

// Connection is a symmetric relation between two users, stored once per pair
// with UserLo < UserHi.
type Connection struct {
	ID        int64     `json:"id"`
	UserLo    int64     `json:"user_lo"`
	UserHi    int64     `json:"user_hi"`
	RequestID *int64    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PairKey orders two user ids so that the pair has one canonical form.
func PairKey(a, b int64) (lo, hi int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// Partner returns the other side of the connection.
func (c *Connection) Partner(userID int64) int64 {
	if c.UserLo == userID {
		return c.UserHi
	}
	return c.UserLo
}

// ConnectionView is a connection from one user's point of view.
type ConnectionView struct {
	Partner     UserView  `json:"partner"`
	Online      bool      `json:"online"`
	ConnectedAt time.Time `json:"connected_at"`
}
