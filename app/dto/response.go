package dto

import "github.com/vibast-solutions/ms-go-clubs/app/entity"

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AuthResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
}

type ProfileResponse struct {
	ID                      uint64                         `json:"id"`
	Name                    string                         `json:"name"`
	Email                   string                         `json:"email"`
	Confirmed               bool                           `json:"confirmed"`
	NotificationPreferences entity.NotificationPreferences `json:"notification_preferences"`
	ProfilePicture          string                         `json:"profile_picture,omitempty"`
	AccessToken             string                         `json:"accessToken,omitempty"`
}

func NewProfileResponse(user *entity.User, profilePicture, accessToken string) *ProfileResponse {
	return &ProfileResponse{
		ID:                      user.ID,
		Name:                    user.Name,
		Email:                   user.Email,
		Confirmed:               user.IsConfirmed,
		NotificationPreferences: user.NotificationPreferences,
		ProfilePicture:          profilePicture,
		AccessToken:             accessToken,
	}
}
