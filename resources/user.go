package resources

import (
	"context"
	"regexp"

	"github.com/relabs-tech/crudkit/core/model"
)

// userFields are the fields of User documents
var userFields = model.Fields{
	"name": {Type: model.String, Required: true},
	"email": {
		Type: model.String, Required: true, Unique: true,
		Match:        regexp.MustCompile(`^\S+@\S+\.\S+$`),
		MatchMessage: "Please provide a valid email",
	},
	"password": {Type: model.String, Required: true, WriteOnly: true},
	"role":     {Type: model.String, Enum: []string{"user", "admin"}, Default: "user"},
}

// NewUserSchema returns the schema of User.
//
// The role is stored but not enforced anywhere.
func NewUserSchema() *model.Schema {
	schema := model.NewSchema(userFields)
	schema.Pre(preparePassword)
	return schema
}

// preparePassword is the place to hash the password before a user is stored.
// It currently keeps the password as it was sent.
func preparePassword(ctx context.Context, doc model.Document) error {
	return nil
}
