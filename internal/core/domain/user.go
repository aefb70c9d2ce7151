package domain

import "time"

// User is an identity issued by the external auth provider. The core only
// records that it has been seen; it never updates or deletes users.
type User struct {
	UID       string    `json:"uid" bson:"uid"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
