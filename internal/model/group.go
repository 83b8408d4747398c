package model

import "time"

// Group is a study group of connected users
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	OwnerID     int64     `json:"owner_id"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type GroupMember struct {
	GroupID  int64     `json:"group_id"`
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"` // 'owner', 'member'
	JoinedAt time.Time `json:"joined_at"`
}

// Member role constants
const (
	GroupRoleOwner  = "owner"
	GroupRoleMember = "member"
)
