package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	pointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundaryPoint",
		Fields: graphql.Fields{
			"alt": &graphql.Field{Type: graphql.Float},
			"az":  &graphql.Field{Type: graphql.Float},
		},
	})

	positionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MountPosition",
		Fields: graphql.Fields{
			"alt":  &graphql.Field{Type: graphql.Float},
			"az":   &graphql.Field{Type: graphql.Float},
			"time": &graphql.Field{Type: graphql.DateTime},
		},
	})

	checkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LimitCheck",
		Fields: graphql.Fields{
			"alt":     &graphql.Field{Type: graphql.Float},
			"az":      &graphql.Field{Type: graphql.Float},
			"limit":   &graphql.Field{Type: graphql.Float},
			"allowed": &graphql.Field{Type: graphql.Boolean},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"horizonLimit": &graphql.Field{
				Type:        graphql.NewList(pointType),
				Description: "Stored horizon limit, ascending by azimuth",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Horizon.Points(p.Context)
				},
			},
			"limitAt": &graphql.Field{
				Type:        graphql.Float,
				Description: "Minimum altitude at an azimuth; null when no limit is set",
				Args: graphql.FieldConfigArgument{
					"az": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit, ok, err := deps.Horizon.LimitAt(p.Context, p.Args["az"].(float64))
					if err != nil || !ok {
						return nil, err
					}
					return limit, nil
				},
			},
			"checkTarget": &graphql.Field{
				Type:        checkType,
				Description: "Test a target against the horizon limit",
				Args: graphql.FieldConfigArgument{
					"alt": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"az":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Horizon.Check(p.Context, p.Args["alt"].(float64), p.Args["az"].(float64))
				},
			},
			"pointingModel": &graphql.Field{
				Type:        graphql.NewList(pointType),
				Description: "Sample points of the active pointing model",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Models.Points(p.Context)
				},
			},
			"mountStatus": &graphql.Field{
				Type:        positionType,
				Description: "Live mount position",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Hub != nil {
						return deps.Hub.Position(p.Context)
					}
					return deps.Status.Position(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
