package domain

import "time"

type ProfileID string

const DefaultProfileID ProfileID = "default"

// Profile binds a backend address to one credential slot in the secret store.
type Profile struct {
	ID          ProfileID
	BaseURL     string
	Email       string
	Role        Role
	LastLoginAt time.Time
}

func (p Profile) SecretPrefix() string {
	return "waselni/" + string(p.ID)
}
