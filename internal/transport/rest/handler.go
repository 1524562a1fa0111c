// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	producterrors "github.com/abgdnv/produce/internal/errors"
	"github.com/abgdnv/produce/internal/service"
	"github.com/abgdnv/produce/pkg/config"
	"github.com/abgdnv/produce/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// WelcomeMessage is the body of GET /.
const WelcomeMessage = "Welcome to the farm products API: specialized in fruits and vegetables!"

type Handler struct {
	service   service.ProductService
	validate  *validator.Validate
	logger    *slog.Logger
	patchMode string
}

// NewHandler creates a new instance of the product API with the provided service.
// patchMode is config.PatchModeStrict or config.PatchModeLoose.
func NewHandler(service service.ProductService, logger *slog.Logger, patchMode string) *Handler {
	return &Handler{
		service:   service,
		validate:  newValidator(),
		logger:    logger.With("component", "rest"),
		patchMode: patchMode,
	}
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RegisterRoutes registers the HTTP routes for the product service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Welcome)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)
		r.Get("/name/{name}", h.FindByName)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Patch("/", h.Patch)
			r.Delete("/", h.DeleteByID)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// Welcome answers with a static greeting.
func (h *Handler) Welcome(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, WelcomeMessage)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.logger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, err, id, "Error retrieving product", fmt.Sprintf("Failed to retrieve product with ID %s", id))
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "Name", found.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// FindAll retrieves a list of all products.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	offset, limit, ok := h.parsePage(w, r)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to find all products", "limit", limit, "offset", offset)
	list, err := h.service.FindAll(r.Context(), offset, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	if len(list) == 0 {
		h.logger.WarnContext(r.Context(), "No products found")
		web.RespondError(w, h.logger, http.StatusNotFound, "No products found")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// FindByName retrieves the products whose name contains the path value, ignoring case.
func (h *Handler) FindByName(w http.ResponseWriter, r *http.Request) {
	name, ok := h.pathParam(w, r, "name")
	if !ok {
		return
	}
	offset, limit, ok := h.parsePage(w, r)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to find products by name", "name", name, "limit", limit, "offset", offset)
	list, err := h.service.FindByName(r.Context(), name, offset, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error searching products", "name", name, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to search products")
		return
	}
	if len(list) == 0 {
		h.logger.WarnContext(r.Context(), "No products match name", "name", name)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("No products found matching %q", name))
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully searched products", "name", name, "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var productCreateDto service.ProductCreateDto
	if !h.decodeBody(w, r, &productCreateDto) {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to create product", "product", productCreateDto)
	if !h.validateBody(w, r, productCreateDto, "All fields are required") {
		return
	}

	newProduct, err := h.service.Create(r.Context(), productCreateDto)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", newProduct.ID, "Name", newProduct.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, newProduct)
}

// Patch updates a product. In strict mode only the price can change and it must be present,
// in loose mode every field sent is applied.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.logger.DebugContext(r.Context(), "Received request to update product", "ID", id, "mode", h.patchMode)

	var (
		updated *service.ProductDto
		err     error
	)
	if h.patchMode == config.PatchModeLoose {
		var patchDto service.ProductPatchDto
		if !h.decodeBody(w, r, &patchDto) {
			return
		}
		updated, err = h.service.Patch(r.Context(), id, patchDto)
	} else {
		var priceDto service.PriceUpdateDto
		if !h.decodeBody(w, r, &priceDto) {
			return
		}
		if !h.validateBody(w, r, priceDto, "Field 'price' is required") {
			return
		}
		updated, err = h.service.UpdatePrice(r.Context(), id, priceDto.Price)
	}
	if err != nil {
		h.respondLookupError(w, r, err, id, "Error updating product", fmt.Sprintf("Failed to update product with ID %s", id))
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Price", updated.Price)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// DeleteByID deletes a product by its ID and answers with the removed product.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.logger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	deleted, err := h.service.DeleteByID(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, err, id, "Error deleting product", fmt.Sprintf("Failed to delete product with ID %s", id))
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	web.RespondJSON(w, h.logger, http.StatusOK, deleted)
}

// HealthCheck answers 200 while the store is reachable and 503 otherwise.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "Health check failed", "error", err)
		web.RespondError(w, h.logger, http.StatusServiceUnavailable, "Store unavailable")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// respondLookupError maps a not-found error to 404 and anything else to 500.
// The cause of a 500 is logged, never sent.
func (h *Handler) respondLookupError(w http.ResponseWriter, r *http.Request, err error, id, logMsg, publicMsg string) {
	if errors.Is(err, producterrors.ErrProductNotFound) {
		h.logger.WarnContext(r.Context(), "Product not found", "ID", id)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
		return
	}
	h.logger.ErrorContext(r.Context(), logMsg, "ID", id, "error", err)
	web.RespondError(w, h.logger, http.StatusInternalServerError, publicMsg)
}

// decodeBody reads a JSON body into dst. An empty body leaves dst as it is.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		h.logger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// validateBody runs the validate tags of body and replies 400 with the failed rules.
func (h *Handler) validateBody(w http.ResponseWriter, r *http.Request, body any, message string) bool {
	err := h.validate.Struct(body)
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorResponse := make(map[string]string)
		for _, fieldErr := range validationErrors {
			// fieldErr.Tag() returns "required", "max", etc.
			errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
		web.RespondValidationError(w, h.logger, message, errorResponse)
		return false
	}
	h.logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
	web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
	return false
}

// pathParam returns the decoded value of a URL parameter.
// chi matches on RawPath when it is set (e.g. the path holds %2F), leaving params escaped.
func (h *Handler) pathParam(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, true
	}
	decoded, err := url.PathUnescape(value)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid path parameter", "key", key, "value", value, "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s: %s", key, value))
		return "", false
	}
	return decoded, true
}

// parsePage reads the optional offset and limit query parameters. A zero limit means all.
func (h *Handler) parsePage(w http.ResponseWriter, r *http.Request) (offset, limit int32, ok bool) {
	limit, ok = web.ParseOptionalGt(r, w, h.logger, "limit", 0, 0)
	if !ok {
		return 0, 0, false
	}
	offset, ok = web.ParseOptionalGte(r, w, h.logger, "offset", 0, 0)
	if !ok {
		return 0, 0, false
	}
	return offset, limit, true
}
