package validators

import "go.mongodb.org/mongo-driver/bson"

var optionalLevel = bson.M{
	"bsonType": []string{"int", "long", "null"},
	"minimum":  0,
}

var FacilityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "active"},
		"additionalProperties": true,

		"properties": bson.M{
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},
			"location": bson.M{"bsonType": "string"},
			"active":   bson.M{"bsonType": "bool"},

			"allowed_departments": bson.M{
				"bsonType": []string{"array", "null"},
				"items":    bson.M{"bsonType": "string"},
			},
			"allowed_ranks": bson.M{
				"bsonType": []string{"array", "null"},
				"items":    bson.M{"bsonType": "string"},
			},
			"min_rank_level":            optionalLevel,
			"management_min_rank_level": optionalLevel,

			"require_approval": bson.M{"bsonType": "bool"},
			"approver_id":      optionalString,
		},
	},
}
