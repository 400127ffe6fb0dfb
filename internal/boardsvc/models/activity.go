package models

import "time"

// Activity is the per-project feed document; board events append messages.
type Activity struct {
	ProjectId string            `json:"project" bson:"project"`
	Messages  []ActivityMessage `json:"messages" bson:"messages"`
}

type ActivityMessage struct {
	Avatar    string    `json:"avatar" bson:"avatar"`
	Name      string    `json:"name" bson:"name"`
	Message   string    `json:"message" bson:"message"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
