package entity

import (
	"database/sql"
	"time"
)

type NotificationPreferences struct {
	Messages    bool `json:"messages"`
	Events      bool `json:"events"`
	Discussions bool `json:"discussions"`
	ClubUpdates bool `json:"club_updates"`
}

func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		Messages:    true,
		Events:      true,
		Discussions: true,
		ClubUpdates: true,
	}
}

type User struct {
	ID                      uint64
	Name                    string
	Email                   string
	PasswordHash            string
	IsConfirmed             bool
	NotificationPreferences NotificationPreferences
	ProfilePicture          sql.NullString
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
