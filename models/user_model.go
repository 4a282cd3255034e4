package models

type User struct {
	ID           string `json:"id" bson:"_id,omitempty"`
	PublicID     string `json:"public_id" bson:"public_id"`
	Username     string `json:"username" bson:"username"`
	Email        string `json:"email" bson:"email"`
	PasswordHash string `json:"-" bson:"password_hash"`
}
