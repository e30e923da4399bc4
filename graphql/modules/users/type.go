// Package users defines the GraphQL types for storefront accounts.
package users

import (
	"github.com/graphql-go/graphql"
	"github.com/storefront/users-backend/model"
)

// RoleEnum enumerates account roles.
var RoleEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "Role",
	Values: graphql.EnumValueConfigMap{
		"customer": &graphql.EnumValueConfig{Value: model.RoleCustomer},
		"vendor":   &graphql.EnumValueConfig{Value: model.RoleVendor},
		"admin":    &graphql.EnumValueConfig{Value: model.RoleAdmin},
	},
})

// ProfileType is the public view of an account. Secrets are not exposed.
var ProfileType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Profile",
	Fields: graphql.Fields{
		"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":       &graphql.Field{Type: graphql.String},
		"email":      &graphql.Field{Type: graphql.String},
		"mobile":     &graphql.Field{Type: graphql.String},
		"role":       &graphql.Field{Type: RoleEnum},
		"is_prime":   &graphql.Field{Type: graphql.Boolean},
		"addresses":  &graphql.Field{Type: graphql.NewList(graphql.String)},
		"cards":      &graphql.Field{Type: graphql.NewList(graphql.String)},
		"wishlists":  &graphql.Field{Type: graphql.NewList(graphql.String)},
		"created_at": &graphql.Field{Type: graphql.DateTime},
		"updated_at": &graphql.Field{Type: graphql.DateTime},
	},
})
