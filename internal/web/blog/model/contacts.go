package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact message sent through the contact form
type Contact struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Subject   string             `bson:"subject" json:"subject"`
	Message   string             `bson:"message" json:"message"`
	IP        string             `bson:"ip" json:"-"`
	UserAgent string             `bson:"userAgent" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
