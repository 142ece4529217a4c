package user

import (
	"time"

	"github.com/tech-arch1tect/paygate/services/jwt"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

type User struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Email      string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Firstname  string    `json:"firstname" gorm:"size:255;not null"`
	Lastname   string    `json:"lastname" gorm:"size:255;not null"`
	Username   string    `json:"username" gorm:"size:255;not null"`
	Password   string    `json:"-" gorm:"size:255;not null"`
	Phone      string    `json:"phone" gorm:"size:32;not null"`
	Country    string    `json:"country" gorm:"size:128;not null"`
	State      string    `json:"state" gorm:"size:128;not null"`
	Role       Role      `json:"role" gorm:"size:16;not null;default:USER"`
	Status     Status    `json:"status" gorm:"size:16;not null;default:ACTIVE"`
	Gender     Gender    `json:"gender" gorm:"size:16;not null"`
	FcmToken   *string   `json:"fcm_token,omitempty" gorm:"size:512"`
	Location   *string   `json:"location,omitempty" gorm:"size:255"`
	StarRating *string   `json:"star_rating,omitempty" gorm:"size:16"`
	RefreshID  *string   `json:"-" gorm:"index;size:255"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Identity is the snapshot embedded in access tokens. The password hash and
// refresh identifier are never part of it.
func (u *User) Identity() jwt.Identity {
	return jwt.Identity{
		ID:        u.ID,
		Email:     u.Email,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Username:  u.Username,
		Phone:     u.Phone,
		Country:   u.Country,
		State:     u.State,
		Role:      string(u.Role),
		Status:    string(u.Status),
		Gender:    string(u.Gender),
	}
}

type PhoneInput struct {
	Prefix string `validate:"required,numeric,max=4"`
	Number string `validate:"required,numeric,min=6,max=15"`
}

type CreateInput struct {
	Email     string      `validate:"required,email"`
	Firstname string      `validate:"required,max=255"`
	Lastname  string      `validate:"required,max=255"`
	Username  string      `validate:"required,max=255"`
	Password  string      `validate:"required"`
	Phone     *PhoneInput `validate:"required"`
	Country   string      `validate:"required"`
	State     string      `validate:"required"`
	Role      Role        `validate:"omitempty,oneof=ADMIN USER"`
	Gender    Gender      `validate:"required,oneof=MALE FEMALE"`
	FcmToken  *string
	Location  *string
}

type UpdateInput struct {
	Email      *string     `validate:"omitempty,email"`
	Firstname  *string     `validate:"omitempty,min=1,max=255"`
	Lastname   *string     `validate:"omitempty,min=1,max=255"`
	Username   *string     `validate:"omitempty,min=1,max=255"`
	Phone      *PhoneInput `validate:"omitempty"`
	Country    *string     `validate:"omitempty,min=1"`
	State      *string     `validate:"omitempty,min=1"`
	Role       *Role       `validate:"omitempty,oneof=ADMIN USER"`
	Status     *Status     `validate:"omitempty,oneof=ACTIVE INACTIVE"`
	Gender     *Gender     `validate:"omitempty,oneof=MALE FEMALE"`
	FcmToken   *string
	Location   *string
	StarRating *string
}
