package domain

import (
	"fmt"
	"strings"
)

type UserID string

type Role string

const (
	RoleShipper           Role = "SHIPPER"
	RoleCarrierIndividual Role = "CARRIER_INDIVIDUAL"
	RoleCarrierPro        Role = "CARRIER_PRO"
	RoleShipperCarrier    Role = "SHIPPER_CARRIER"
	RoleAdmin             Role = "ADMIN"
)

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) IsShipper() bool {
	return r == RoleShipper
}

// IsCarrier covers both individual and professional carriers.
func (r Role) IsCarrier() bool {
	return r == RoleCarrierIndividual || r == RoleCarrierPro
}

func (r Role) IsCarrierPro() bool {
	return r == RoleCarrierPro
}

func (r Role) Label() string {
	switch r {
	case RoleShipper:
		return "Shipper"
	case RoleCarrierIndividual:
		return "Carrier"
	case RoleCarrierPro:
		return "Carrier (pro)"
	case RoleShipperCarrier:
		return "Shipper + carrier"
	case RoleAdmin:
		return "Admin"
	case "":
		return "Unknown"
	default:
		return string(r)
	}
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
	UserStatusPending   UserStatus = "PENDING"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// User is the profile returned by the backend for the authenticated caller.
type User struct {
	ID                 UserID             `json:"id"`
	Email              string             `json:"email"`
	Role               Role               `json:"role"`
	Status             UserStatus         `json:"status,omitempty"`
	FirstName          string             `json:"first_name"`
	LastName           string             `json:"last_name"`
	Phone              string             `json:"phone,omitempty"`
	PhoneVerified      bool               `json:"phone_verified"`
	Country            string             `json:"country,omitempty"`
	City               string             `json:"city,omitempty"`
	AvatarURL          string             `json:"avatar_url,omitempty"`
	Bio                string             `json:"bio,omitempty"`
	RatingSum          int                `json:"rating_sum"`
	RatingCount        int                `json:"rating_count"`
	VerificationStatus VerificationStatus `json:"verification_status,omitempty"`
	CreatedAt          string             `json:"created_at,omitempty"`
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Rating is the average review score, zero when the user has no reviews.
func (u User) Rating() float64 {
	if u.RatingCount <= 0 {
		return 0
	}
	return float64(u.RatingSum) / float64(u.RatingCount)
}

func (u User) RatingLabel() string {
	if u.RatingCount <= 0 {
		return "no reviews"
	}
	return fmt.Sprintf("%.1f/5 (%d)", u.Rating(), u.RatingCount)
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the payload of POST /auth/register. ADMIN cannot self-register.
type Registration struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      Role   `json:"role" validate:"required,oneof=SHIPPER CARRIER_INDIVIDUAL CARRIER_PRO SHIPPER_CARRIER"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Country   string `json:"country" validate:"required"`
	City      string `json:"city" validate:"required"`
}

// UserUpdate carries the editable profile fields; nil fields are left untouched.
type UserUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Country   *string `json:"country,omitempty"`
	City      *string `json:"city,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}

func (u UserUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil &&
		u.Country == nil && u.City == nil && u.Bio == nil
}
