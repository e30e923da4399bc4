// Package users defines the GraphQL queries for storefront accounts.
package users

import (
	"context"
	"errors"

	"github.com/graphql-go/graphql"
	"github.com/storefront/users-backend/model"
	"github.com/storefront/users-backend/restapi/modules/auth"
)

// AccountReader is the part of the account service the queries use
type AccountReader interface {
	GetProfile(ctx context.Context, id string) (model.Profile, error)
	ListNonAdminAccounts(ctx context.Context) ([]model.Profile, error)
	Authorize(ctx context.Context, subjectID string, roles ...model.Role) (*model.User, error)
}

// GetQueryFields returns the account queries to be mounted in the root schema.
func GetQueryFields(accounts AccountReader) graphql.Fields {
	return graphql.Fields{
		"me": &graphql.Field{
			Type:        ProfileType,
			Description: "Profile of the signed-in account",
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				subject, ok := auth.SubjectFromContext(p.Context)
				if !ok {
					return nil, publicError(auth.ErrUnauthenticated)
				}
				profile, err := accounts.GetProfile(p.Context, subject)
				if err != nil {
					return nil, publicError(err)
				}
				return profile, nil
			},
		},
		"users": &graphql.Field{
			Type:        graphql.NewList(ProfileType),
			Description: "Every non-admin account. Admin only.",
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				subject, ok := auth.SubjectFromContext(p.Context)
				if !ok {
					return nil, publicError(auth.ErrUnauthenticated)
				}
				if _, err := accounts.Authorize(p.Context, subject, model.RoleAdmin); err != nil {
					return nil, publicError(err)
				}
				profiles, err := accounts.ListNonAdminAccounts(p.Context)
				if err != nil {
					return nil, publicError(err)
				}
				return profiles, nil
			},
		},
	}
}

func publicError(err error) error {
	return errors.New(auth.MessageFor(err))
}
