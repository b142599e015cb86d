package models

// User is a back-office account.
type User struct {
	Base
	Name     string `gorm:"size:255;not null" json:"name"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Role     string `gorm:"size:50;not null;default:customer;index" json:"role"`
}
