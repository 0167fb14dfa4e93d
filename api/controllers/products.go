package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velvetsouk/velvetsouk-backend/api/responses"
	"github.com/velvetsouk/velvetsouk-backend/api/validators"
	"github.com/velvetsouk/velvetsouk-backend/internal/catalog"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
)

// ListProducts serves the public catalog. Inactive products are hidden.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListProducts(r.Context(), params, catalog.ProductFilters{
			Category:   strings.TrimSpace(r.URL.Query().Get("category")),
			ActiveOnly: true,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productResponse, 0, len(list.Products))
		for i := range list.Products {
			items = append(items, newProductResponse(&list.Products[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"products":    items,
			"next_cursor": list.NextCursor,
		})
	}
}

// GetProduct serves a single product by slug.
func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		product, err := svc.GetProductBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

type createProductRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=255"`
	Slug       string `json:"slug" validate:"required,min=1,max=255"`
	Category   string `json:"category" validate:"max=100"`
	Image      string `json:"image" validate:"omitempty,url"`
	PriceCents int    `json:"price_cents" validate:"required,gt=0"`
	Currency   string `json:"currency" validate:"omitempty,oneof=USD"`
	StockQty   int    `json:"stock_qty" validate:"min=0"`
}

// AdminCreateProduct adds a catalog entry.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		currency := enums.CurrencyUSD
		if payload.Currency != "" {
			currency = enums.Currency(payload.Currency)
		}
		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			Name:       payload.Name,
			Slug:       payload.Slug,
			Category:   payload.Category,
			Image:      payload.Image,
			PriceCents: payload.PriceCents,
			Currency:   currency,
			StockQty:   payload.StockQty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

type updateProductRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=255"`
	Category   *string `json:"category" validate:"omitempty,max=100"`
	Image      *string `json:"image" validate:"omitempty,url"`
	PriceCents *int    `json:"price_cents" validate:"omitempty,gt=0"`
	StockQty   *int    `json:"stock_qty" validate:"omitempty,min=0"`
	IsActive   *bool   `json:"is_active"`
}

// AdminUpdateProduct patches catalog fields.
func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updates := map[string]any{}
		if payload.Name != nil {
			updates["name"] = *payload.Name
		}
		if payload.Category != nil {
			updates["category"] = *payload.Category
		}
		if payload.Image != nil {
			updates["image"] = *payload.Image
		}
		if payload.PriceCents != nil {
			updates["price_cents"] = *payload.PriceCents
		}
		if payload.StockQty != nil {
			updates["stock_qty"] = *payload.StockQty
		}
		if payload.IsActive != nil {
			updates["is_active"] = *payload.IsActive
		}

		product, err := svc.UpdateProduct(r.Context(), productID, updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

type productResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Category   string    `json:"category,omitempty"`
	Image      *string   `json:"image,omitempty"`
	PriceCents int       `json:"price_cents"`
	Currency   string    `json:"currency"`
	StockQty   int       `json:"stock_qty"`
	IsActive   bool      `json:"is_active"`
}

func newProductResponse(p *models.Product) productResponse {
	if p == nil {
		return productResponse{}
	}
	return productResponse{
		ID:         p.ID,
		Name:       p.Name,
		Slug:       p.Slug,
		Category:   p.Category,
		Image:      p.Image,
		PriceCents: p.PriceCents,
		Currency:   string(p.Currency),
		StockQty:   p.StockQty,
		IsActive:   p.IsActive,
	}
}
