package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
)

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toEntity()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	p, err := h.products.CreateProduct(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapProductToResponse(p))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetProduct(r.Context(), chi.URLParam(r, "product_id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProductToResponse(p))
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.pageFromQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := entity.ProductFilter{
		Name:     q.Get("name"),
		Size:     q.Get("size"),
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
	}
	if filter.MinPrice, err = floatQuery(r, "min_price"); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if filter.MaxPrice, err = floatQuery(r, "max_price"); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if filter.InStock, err = boolQuery(r, "in_stock"); err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.products.ListProducts(r.Context(), filter, page)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	products := make([]ProductResponse, len(result.Items))
	for i, p := range result.Items {
		products[i] = mapProductToResponse(p)
	}
	writeJSON(w, http.StatusOK, ProductListResponse{
		Products: products,
		Total:    result.Total,
		Limit:    result.Limit,
		Offset:   result.Offset,
		HasMore:  result.HasMore(),
	})
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	upd, err := req.toEntity()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	p, err := h.products.UpdateProduct(r.Context(), chi.URLParam(r, "product_id"), upd)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProductToResponse(p))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "product_id")
	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	slog.DebugContext(r.Context(), "product removed", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
}
