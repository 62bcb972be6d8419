package models

import (
	"fmt"
	"time"
)

/** --------------------ENTITIES-------------------- */

// User is the display directory entry for an identity issued elsewhere.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

/** -------------------- DTOs -------------------- */

// UserSummary is what other users see of a sender.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// UnknownUser is the placeholder for ids missing from the directory.
func UnknownUser(id uint) UserSummary {
	return UserSummary{ID: id, Username: fmt.Sprintf("user_%d", id)}
}
