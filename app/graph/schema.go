// Package graph exposes the storefront catalog as a read-only GraphQL
// schema. Money is rendered as decimal strings.
package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/app/shipping"
	"github.com/bytekstore/bytek/pkg/collection"
	gql "github.com/bytekstore/bytek/pkg/graphql"
)

// maxProducts bounds a products query; the API has no cursor.
const maxProducts = 100

var variantType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Variant",
	Fields: graphql.Fields{
		"size":  &graphql.Field{Type: graphql.String},
		"color": &graphql.Field{Type: graphql.String},
		"stock": &graphql.Field{Type: graphql.Int},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":             &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":           &graphql.Field{Type: graphql.String},
		"description":    &graphql.Field{Type: graphql.String},
		"price":          &graphql.Field{Type: graphql.String},
		"compareAtPrice": &graphql.Field{Type: graphql.String},
		"onSale":         &graphql.Field{Type: graphql.Boolean},
		"image":          &graphql.Field{Type: graphql.String},
		"images":         &graphql.Field{Type: graphql.NewList(graphql.String)},
		"category":       &graphql.Field{Type: graphql.String},
		"status":         &graphql.Field{Type: graphql.String},
		"rating":         &graphql.Field{Type: graphql.Float},
		"reviews":        &graphql.Field{Type: graphql.Int},
		"sizes":          &graphql.Field{Type: graphql.NewList(graphql.String)},
		"colors":         &graphql.Field{Type: graphql.NewList(graphql.String)},
		"tags":           &graphql.Field{Type: graphql.NewList(graphql.String)},
		"featured":       &graphql.Field{Type: graphql.Boolean},
		"inStock":        &graphql.Field{Type: graphql.Boolean},
		"variants":       &graphql.Field{Type: graphql.NewList(variantType)},
	},
})

var regionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Region",
	Fields: graphql.Fields{
		"id":               &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name":             &graphql.Field{Type: graphql.String},
		"homeDeliveryCost": &graphql.Field{Type: graphql.String},
		"pickupDeskCost":   &graphql.Field{Type: graphql.String},
	},
})

var quoteType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ShippingQuote",
	Fields: graphql.Fields{
		"regionId": &graphql.Field{Type: graphql.Int},
		"mode":     &graphql.Field{Type: graphql.String},
		"known":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"source":   &graphql.Field{Type: graphql.String},
		// null when known is false
		"cost": &graphql.Field{Type: graphql.String},
	},
})

func productNode(p models.Product) map[string]any {
	variants := collection.Map(p.Variants, func(v models.ProductVariant) map[string]any {
		return map[string]any{"size": v.Size, "color": v.Color, "stock": v.Stock}
	})
	var compareAt any
	if p.CompareAtPrice.Valid {
		compareAt = p.CompareAtPrice.Decimal.String()
	}
	return map[string]any{
		"id":             p.ID,
		"name":           p.Name,
		"description":    p.Description,
		"price":          p.Price.String(),
		"compareAtPrice": compareAt,
		"onSale":         p.OnSale(),
		"image":          p.Image,
		"images":         []string(p.Images),
		"category":       p.Category,
		"status":         string(p.Status),
		"rating":         p.Rating,
		"reviews":        p.Reviews,
		"sizes":          []string(p.Sizes),
		"colors":         []string(p.Colors),
		"tags":           []string(p.Tags),
		"featured":       p.Featured,
		"inStock":        !p.TrackInventory || p.InStock(),
		"variants":       variants,
	}
}

func quoteNode(q shipping.Quote) map[string]any {
	n := map[string]any{
		"regionId": q.RegionID,
		"mode":     string(q.Mode),
		"known":    q.Known,
		"source":   string(q.Source),
		"cost":     nil,
	}
	if q.Known {
		n["cost"] = q.Cost.String()
	}
	return n
}

// NewSchema builds the catalog schema over the storefront services.
func NewSchema(products *services.ProductService, rates *services.ShippingService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
					"search":   &graphql.ArgumentConfig{Type: graphql.String},
					"sort":     &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					f := repositories.ProductFilter{PerPage: maxProducts}
					f.Category, _ = p.Args["category"].(string)
					f.Search, _ = p.Args["search"].(string)
					f.Sort, _ = p.Args["sort"].(string)

					list, _, err := products.Catalog(p.Context, f)
					if err != nil {
						return nil, err
					}
					return collection.Map(list, productNode), nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(string)
					item, err := products.Get(p.Context, id, false)
					if err != nil {
						return nil, err
					}
					return productNode(item), nil
				},
			},
			"regions": &graphql.Field{
				Type: graphql.NewList(regionType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					rows, err := rates.PublicRates(p.Context)
					if err != nil {
						return nil, err
					}
					nodes := make([]map[string]any, 0, len(rows))
					for _, r := range rows {
						nodes = append(nodes, map[string]any{
							"id":               r.RegionID,
							"name":             r.RegionName,
							"homeDeliveryCost": r.HomeDeliveryCost.String(),
							"pickupDeskCost":   r.PickupDeskCost.String(),
						})
					}
					return nodes, nil
				},
			},
			"shippingQuote": &graphql.Field{
				Type: quoteType,
				Args: graphql.FieldConfigArgument{
					"regionId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"mode":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(shipping.Home)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					regionID, _ := p.Args["regionId"].(int)
					raw, _ := p.Args["mode"].(string)
					mode, err := shipping.ParseMode(raw)
					if err != nil {
						return nil, err
					}
					q, err := rates.Quote(p.Context, regionID, mode)
					if err != nil {
						return nil, err
					}
					return quoteNode(q), nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}
