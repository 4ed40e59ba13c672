package http

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/photomap/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the photo scanner.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	photoFields := graphql.Fields{
		"filename":  &graphql.Field{Type: graphql.String},
		"title":     &graphql.Field{Type: graphql.String},
		"lat":       &graphql.Field{Type: graphql.Float},
		"lng":       &graphql.Field{Type: graphql.Float},
		"comments":  &graphql.Field{Type: graphql.String},
		"date_time": &graphql.Field{Type: graphql.String},
		"camera":    &graphql.Field{Type: graphql.String},
	}

	photoType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Photo",
		Fields: photoFields,
	})

	nearbyFields := graphql.Fields{"distance": &graphql.Field{Type: graphql.Float}}
	for name, f := range photoFields {
		nearbyFields[name] = &graphql.Field{Type: f.Type}
	}
	nearbyPhotoType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "NearbyPhoto",
		Fields: nearbyFields,
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"photos": &graphql.Field{
				Type:        graphql.NewList(photoType),
				Description: "Geotagged photos in the photo directory",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					result, err := scanOnce(p.Context, deps)
					if err != nil {
						return nil, err
					}
					return photoMaps(result.Photos), nil
				},
			},
			"center": &graphql.Field{
				Type:        geoPointType,
				Description: "Mean position of all geotagged photos",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					result, err := scanOnce(p.Context, deps)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"lat": result.Center.Lat,
						"lng": result.Center.Lng,
					}, nil
				},
			},
			"nearbyPhotos": &graphql.Field{
				Type:        graphql.NewList(nearbyPhotoType),
				Description: "Photos within a radius of a point, closest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lng := p.Args["lng"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					if err := validateNearby(lat, lng, radius); err != nil {
						return nil, err
					}
					nearby, err := deps.Photos.Nearby(p.Context, deps.PhotosDir, lat, lng, radius, limit)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(nearby))
					for _, n := range nearby {
						m := photoMap(n.Photo)
						m["distance"] = n.Distance
						out = append(out, m)
					}
					return out, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

type requestScanKey struct{}

// requestScan lets the photos and center fields of one query share a scan.
type requestScan struct {
	once   sync.Once
	result *domain.ScanResult
	err    error
}

func withRequestScan(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestScanKey{}, &requestScan{})
}

func scanOnce(ctx context.Context, deps *Dependencies) (*domain.ScanResult, error) {
	rs, ok := ctx.Value(requestScanKey{}).(*requestScan)
	if !ok {
		return deps.Photos.Scan(ctx, deps.PhotosDir)
	}
	rs.once.Do(func() {
		rs.result, rs.err = deps.Photos.Scan(ctx, deps.PhotosDir)
	})
	return rs.result, rs.err
}

func photoMap(p domain.Photo) map[string]interface{} {
	return map[string]interface{}{
		"filename":  p.Filename,
		"title":     p.Title,
		"lat":       p.Lat,
		"lng":       p.Lng,
		"comments":  p.Comments,
		"date_time": p.DateTime,
		"camera":    p.Camera,
	}
}

func photoMaps(photos []domain.Photo) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(photos))
	for _, p := range photos {
		out = append(out, photoMap(p))
	}
	return out
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
			Context:        withRequestScan(c.UserContext()),
		})

		return c.JSON(result)
	}
}
