package models

import (
	"time"

	"gorm.io/gorm"
)

type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "local"
	AuthProviderGoogle AuthProvider = "google"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// User is the account identity referenced by orders. Authentication flows are
// out of scope; the entity is migrated so order rows can carry a user id.
type User struct {
	ID                  string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username            string         `gorm:"type:varchar(100)" json:"username,omitempty"`
	Firstname           string         `gorm:"type:varchar(100)" json:"firstname,omitempty"`
	Lastname            string         `gorm:"type:varchar(100)" json:"lastname,omitempty"`
	PhoneNumber         string         `gorm:"type:varchar(20)" json:"phoneNumber,omitempty"`
	Email               string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Password            string         `gorm:"type:varchar(255)" json:"-"`
	Provider            AuthProvider   `gorm:"type:varchar(20);not null;default:'local'" json:"provider"`
	GoogleID            string         `gorm:"type:varchar(100)" json:"-"`
	IsVerified          bool           `gorm:"not null;default:false" json:"isVerified"`
	VerificationToken   string         `gorm:"type:varchar(255)" json:"-"`
	VerificationExpires *time.Time     `json:"-"`
	ResetToken          string         `gorm:"type:varchar(255)" json:"-"`
	ResetExpires        *time.Time     `json:"-"`
	ResetCount          int            `gorm:"not null;default:0" json:"-"`
	Status              UserStatus     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Role                UserRole       `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	LoyaltyPoints       int            `gorm:"not null;default:0" json:"loyaltyPoints"`
	ShippingStreet      string         `gorm:"type:varchar(255)" json:"shippingStreet,omitempty"`
	ShippingDistrict    string         `gorm:"type:varchar(100)" json:"shippingDistrict,omitempty"`
	ShippingCity        string         `gorm:"type:varchar(100)" json:"shippingCity,omitempty"`
	ShippingProvince    string         `gorm:"type:varchar(100)" json:"shippingProvince,omitempty"`
	Orders              []Order        `gorm:"foreignKey:UserID" json:"orders,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
