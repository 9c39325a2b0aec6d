package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Event struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	ClientID       primitive.ObjectID `bson:"client_id,omitempty" json:"client_id,omitempty"`
	Name           string             `bson:"name" json:"name"`
	Venue          string             `bson:"venue,omitempty" json:"venue,omitempty"`
	EventDate      *time.Time         `bson:"event_date,omitempty" json:"event_date,omitempty"`
	Status         string             `bson:"status" json:"status"` // planning, confirmed, completed, cancelled
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
