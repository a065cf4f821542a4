package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vitrine-io/vitrine/internal/models"
	"github.com/vitrine-io/vitrine/internal/store"
)

func (api *Api) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := api.Store.ListProducts()
	if err != nil {
		writeError(w, err)
		return
	}

	for _, p := range products {
		api.resolveImageURLs(r.Context(), p)
	}
	if products == nil {
		products = []*models.Product{}
	}

	writeJSON(w, http.StatusOK, products)
}

func (api *Api) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	product, err := api.Store.GetProductBySlug(slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		writeError(w, err)
		return
	}

	api.resolveImageURLs(r.Context(), product)
	writeJSON(w, http.StatusOK, product)
}

// resolveImageURLs fills variant image URLs, presigning object keys when
// an image store is configured and passing keys through otherwise.
func (api *Api) resolveImageURLs(ctx context.Context, p *models.Product) {
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.ImageKey == "" {
			continue
		}
		if api.Images == nil {
			v.ImageURL = v.ImageKey
			continue
		}
		url, err := api.Images.ImageURL(ctx, v.ImageKey)
		if err != nil {
			log.Printf("Failed to presign image URL for key %s: %v", v.ImageKey, err)
			continue
		}
		v.ImageURL = url
	}
}
