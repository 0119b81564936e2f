// Package gql exposes read-only statistics, page-table, and
// frame-table queries over GraphQL, split into schema/resolver/handler
// files. Only a Query root is defined: there is nothing to mutate from
// outside the engine's own Access/Init operations, which the HTTP
// control plane already covers.
package gql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/mnohosten/pagingsim/internal/pager"
)

// EngineSource supplies the running engine a resolver reads from. The
// Server in internal/api implements it. WithEngine holds the server's
// lock for the duration of fn, so a resolver's engine reads stay
// serialized against a concurrent /v1/init or /v1/access the same way
// the REST handlers are.
type EngineSource interface {
	WithEngine(fn func(*pager.PagingEngine) (any, error)) (any, error)
}

func Schema(src EngineSource) (graphql.Schema, error) {
	resolver := &resolver{src: src}

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Statistics",
		Description: "Accumulated counters for the active run",
		Fields: graphql.Fields{
			"policyName":       &graphql.Field{Type: graphql.String},
			"accesses":         &graphql.Field{Type: graphql.Int},
			"hits":             &graphql.Field{Type: graphql.Int},
			"faults":           &graphql.Field{Type: graphql.Int},
			"swapsOut":         &graphql.Field{Type: graphql.Int},
			"swapsIn":          &graphql.Field{Type: graphql.Int},
			"hitRatio":         &graphql.Field{Type: graphql.Float},
			"faultTimeMillis":  &graphql.Field{Type: graphql.Float},
			"swapOutTimeMillis": &graphql.Field{Type: graphql.Float},
			"swapInTimeMillis": &graphql.Field{Type: graphql.Float},
		},
	})

	pageEntryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PageEntry",
		Fields: graphql.Fields{
			"page":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"frame": &graphql.Field{Type: graphql.Int},
			"valid": &graphql.Field{Type: graphql.Boolean},
		},
	})

	frameEntryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FrameEntry",
		Fields: graphql.Fields{
			"frame":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"occupied": &graphql.Field{Type: graphql.Boolean},
			"occupant": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"statistics": &graphql.Field{
				Type:    statsType,
				Resolve: resolver.Statistics,
			},
			"residentPages": &graphql.Field{
				Type:    graphql.NewList(pageEntryType),
				Resolve: resolver.ResidentPages,
			},
			"frames": &graphql.Field{
				Type:    graphql.NewList(frameEntryType),
				Resolve: resolver.Frames,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("gql: build schema: %w", err)
	}
	return schema, nil
}
