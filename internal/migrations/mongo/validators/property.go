package validators

import "go.mongodb.org/mongo-driver/bson"

var PropertyValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"propertyId",
			"location",
			"hostId",
			"title",
			"bedroomCount",
			"bathroomCount",
			"maxGuests",
			"createdAt",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "object",
			},

			"propertyId": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"location": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"hostId": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 5000,
			},

			"bedroomCount": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  50,
			},

			"bathroomCount": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  50,
			},

			"maxGuests": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  200,
			},

			"amenities": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},

			"updatedAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
