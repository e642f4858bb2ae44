package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"display_name", "active"},
		"additionalProperties": true,

		"properties": bson.M{
			"display_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},
			"department_id": bson.M{"bsonType": "string"},
			"rank_id":       bson.M{"bsonType": "string"},
			"rank_level": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
			"superuser": bson.M{"bsonType": "bool"},
			"active":    bson.M{"bsonType": "bool"},
		},
	},
}
