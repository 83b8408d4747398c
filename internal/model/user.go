package model

import "time"

// Role constants
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleOther   = "other"
)

type User struct {
	ID             int64      `json:"id"`
	AnonID         string     `json:"anon_id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	DisplayName    string     `json:"display_name"`
	Role           string     `json:"role"`
	Bio            string     `json:"bio"`
	Anonymous      bool       `json:"anonymous"`
	TelegramChatID *int64     `json:"telegram_chat_id,omitempty"`
	Credits        int        `json:"credits"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// UserView is what other users see about a user.
type UserView struct {
	ID          int64  `json:"id"`
	AnonID      string `json:"anon_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Bio         string `json:"bio,omitempty"`
	Anonymous   bool   `json:"anonymous"`
	Credits     int    `json:"credits"`
}

func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleTeacher, RoleOther:
		return true
	}
	return false
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// PublicName returns the name shown to other users, honoring anonymous mode.
func (u *User) PublicName() string {
	if !u.Anonymous {
		return u.DisplayName
	}
	switch u.Role {
	case RoleStudent:
		return "Anonymous Student"
	case RoleTeacher:
		return "Anonymous Teacher"
	}
	return "Anonymous User"
}

// ViewFor builds the view of u as seen by viewerID. The owner always sees the real name.
func (u *User) ViewFor(viewerID int64) UserView {
	name := u.PublicName()
	bio := u.Bio
	if viewerID == u.ID {
		name = u.DisplayName
	} else if u.Anonymous {
		bio = ""
	}
	return UserView{
		ID:          u.ID,
		AnonID:      u.AnonID,
		DisplayName: name,
		Role:        u.Role,
		Bio:         bio,
		Anonymous:   u.Anonymous,
		Credits:     u.Credits,
	}
}
