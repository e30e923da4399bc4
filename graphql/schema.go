// Package graphql assembles the root GraphQL schema.
package graphql

import (
	"github.com/graphql-go/graphql"
	"github.com/storefront/users-backend/graphql/modules/users"
)

// CreateSchema builds the schema served at /api/v1/graphql
func CreateSchema(accounts users.AccountReader) (graphql.Schema, error) {
	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: users.GetQueryFields(accounts),
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: rootQuery,
	})
}
