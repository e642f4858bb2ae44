package validators

import "go.mongodb.org/mongo-driver/bson"

var slotMinutes = bson.M{
	"bsonType": []string{"int", "long"},
	"minimum":  0,
	"maximum":  1439,
}

var optionalString = bson.M{"bsonType": []string{"string", "null"}}
var optionalDate = bson.M{"bsonType": []string{"date", "null"}}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"facility_id",
			"owner_id",
			"date",
			"start_slot",
			"end_slot",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"facility_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"start_slot": slotMinutes,
			"end_slot":   slotMinutes,

			"title": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"status": bson.M{
				"enum": []string{"PENDING", "APPROVED", "REJECTED", "CANCELED"},
			},

			"approved_by":      optionalString,
			"approved_at":      optionalDate,
			"rejected_by":      optionalString,
			"rejected_at":      optionalDate,
			"rejection_reason": bson.M{"bsonType": "string", "maxLength": 300},
			"canceled_by":      optionalString,
			"canceled_at":      optionalDate,
			"cancel_reason":    bson.M{"bsonType": "string", "maxLength": 300},

			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
