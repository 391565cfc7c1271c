package auth

import "time"

type User struct {
	ID           uint      `gorm:"column:id;primaryKey"`
	Phone        string    `gorm:"column:phone;type:varchar(32);not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(128);not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (User) TableName() string {
	return "users"
}
