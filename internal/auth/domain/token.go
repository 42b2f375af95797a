package domain

import "time"

// UserToken is the stored OAuth credential for one user. Token holds the
// token JSON, sealed when an encryption key is configured.
type UserToken struct {
	UserID    string    `json:"user_id" firestore:"user_id" gorm:"primaryKey"`
	Token     string    `json:"token" firestore:"token" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at"`
}

func (UserToken) TableName() string {
	return "user_tokens"
}
