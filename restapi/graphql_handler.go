// Package restapi provides HTTP handlers for the REST API including GraphQL support.
package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// GraphQLHandler returns a Fiber handler for GraphQL requests.
// The subject set by OptionalAuthenticate travels in the request user context.
func GraphQLHandler(schema graphql.Schema) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var params struct {
			Query         string                 `json:"query"`
			OperationName string                 `json:"operationName"`
			Variables     map[string]interface{} `json:"variables"`
		}

		if err := c.BodyParser(&params); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"errors": []map[string]interface{}{{"message": "Invalid request body"}},
			})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  params.Query,
			VariableValues: params.Variables,
			OperationName:  params.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
