package validators

import "go.mongodb.org/mongo-driver/bson"

var MessageValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"event_id", "receiver_id", "title", "read", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"event_id":    bson.M{"bsonType": "string", "minLength": 1},
			"sender_id":   optionalString,
			"receiver_id": bson.M{"bsonType": "string", "minLength": 1},
			"title":       bson.M{"bsonType": "string", "maxLength": 200},
			"content":     bson.M{"bsonType": "string"},
			"read":        bson.M{"bsonType": "bool"},
			"created_at":  bson.M{"bsonType": "date"},
		},
	},
}
