package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/application/service"
	"stockly/pkg/inventory/domain/model"
)

var errMalformedBody = errors.New("malformed request body")

type Handler struct {
	service service.InventoryService
	loc     *time.Location
}

func Router(inventory service.InventoryService, loc *time.Location) http.Handler {
	if loc == nil {
		loc = time.Local
	}
	h := &Handler{service: inventory, loc: loc}

	r := mux.NewRouter()
	s := r.PathPrefix("/api/v1").Subrouter()

	s.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	s.HandleFunc("/products", h.createProduct).Methods(http.MethodPost)
	s.HandleFunc("/products/{id}", h.getProduct).Methods(http.MethodGet)
	s.HandleFunc("/products/{id}", h.updateProduct).Methods(http.MethodPatch)
	s.HandleFunc("/products/{id}", h.deleteProduct).Methods(http.MethodDelete)

	s.HandleFunc("/products/{id}/consume", h.consume).Methods(http.MethodPost)
	s.HandleFunc("/products/{id}/discard", h.discard).Methods(http.MethodPost)
	s.HandleFunc("/products/{id}/purchase", h.purchase).Methods(http.MethodPost)
	s.HandleFunc("/products/{id}/adjust", h.adjust).Methods(http.MethodPost)
	s.HandleFunc("/products/{id}/stock", h.setStock).Methods(http.MethodPut)

	s.HandleFunc("/products/{id}/template", h.setTemplate).Methods(http.MethodPut)
	s.HandleFunc("/products/{id}/template", h.removeTemplate).Methods(http.MethodDelete)
	s.HandleFunc("/templates", h.listTemplates).Methods(http.MethodGet)

	s.HandleFunc("/shopping-list", h.shoppingList).Methods(http.MethodGet)
	s.HandleFunc("/dashboard", h.dashboard).Methods(http.MethodGet)
	s.HandleFunc("/expiring", h.expiring).Methods(http.MethodGet)

	s.HandleFunc("/settings/expiry-alert-days", h.getAlertDays).Methods(http.MethodGet)
	s.HandleFunc("/settings/expiry-alert-days", h.setAlertDays).Methods(http.MethodPut)

	return logMiddleware(r)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, h.toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	expiry, err := h.parseDate(req.ExpiryDate)
	if err != nil {
		writeError(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), service.NewProduct{
		Name:         req.Name,
		Category:     req.Category,
		Description:  req.Description,
		InitialStock: req.InitialStock,
		ExpiryDate:   expiry,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toProductResponse(*product))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProductResponse(*product))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	patch := service.ProductPatch{Name: req.Name, Category: req.Category, Description: req.Description}
	if req.ExpiryDate != nil {
		expiry, err := h.parseDate(*req.ExpiryDate)
		if err != nil {
			writeError(w, err)
			return
		}
		patch.ExpiryDate = expiry
		patch.ClearExpiry = expiry == nil
	}

	product, err := h.service.UpdateProduct(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProductResponse(*product))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) consume(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Consume(r.Context(), mux.Vars(r)["id"], req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toConsumptionResponse(result))
}

func (h *Handler) discard(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Discard(r.Context(), mux.Vars(r)["id"], req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toConsumptionResponse(result))
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	expiry, err := h.parseDate(req.ExpiryDate)
	if err != nil {
		writeError(w, err)
		return
	}

	product, err := h.service.Purchase(r.Context(), mux.Vars(r)["id"], req.Quantity, expiry)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProductResponse(*product))
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	product, err := h.service.AdjustStock(r.Context(), mux.Vars(r)["id"], req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProductResponse(*product))
}

func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	product, err := h.service.SetStock(r.Context(), mux.Vars(r)["id"], req.Stock)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProductResponse(*product))
}

func (h *Handler) setTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.service.SetIdealQuantity(r.Context(), mux.Vars(r)["id"], req.IdealQuantity, req.Priority)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateResponse(*item))
}

func (h *Handler) removeTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveTemplate(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListTemplates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]templateResponse, 0, len(items))
	for _, t := range items {
		resp = append(resp, toTemplateResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) shoppingList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ShoppingList(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]shoppingEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, shoppingEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		TotalProducts:     stats.TotalProducts,
		TotalItems:        stats.TotalItems,
		ExpiringSoonCount: stats.ExpiringSoonCount,
		LowStockCount:     stats.LowStockCount,
		ExpiredCount:      stats.ExpiredCount,
		ExpiryAlertDays:   stats.AlertWindow,
	})
}

// expiring lists products needing attention. With grouped=true the list is
// split by status; collapseTomorrow=true folds tomorrow into soon.
func (h *Handler) expiring(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	includeUndated, _ := strconv.ParseBool(query.Get("includeUndated"))
	grouped, _ := strconv.ParseBool(query.Get("grouped"))

	if grouped {
		collapseTomorrow, _ := strconv.ParseBool(query.Get("collapseTomorrow"))
		groups, err := h.service.ExpiringGroups(r.Context(), includeUndated, collapseTomorrow)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h.toExpiryGroupsResponse(groups))
		return
	}

	items, err := h.service.Expiring(r.Context(), includeUndated)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toExpiringResponses(items))
}

func (h *Handler) getAlertDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.ExpiryAlertDays(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alertDaysResponse{ExpiryAlertDays: days})
}

func (h *Handler) setAlertDays(w http.ResponseWriter, r *http.Request) {
	var req alertDaysRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.SetExpiryAlertDays(r.Context(), req.ExpiryAlertDays); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alertDaysResponse(req))
}

// parseDate accepts every stored date form; blank input means no date.
func (h *Handler) parseDate(raw string) (*dates.CalendarDate, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return dates.ParseStored(raw, h.loc)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errMalformedBody
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	var insufficient *model.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Shortfall: insufficient.Shortfall})
	case errors.Is(err, model.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrProductNotFound),
		errors.Is(err, model.ErrTemplateNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, errMalformedBody),
		errors.Is(err, dates.ErrUnparsableDate),
		errors.Is(err, model.ErrInvalidQuantity),
		errors.Is(err, model.ErrStockOverflow),
		errors.Is(err, model.ErrNegativeStock),
		errors.Is(err, model.ErrEmptyProductName),
		errors.Is(err, model.ErrInvalidPriority),
		errors.Is(err, model.ErrNegativeIdealQuantity),
		errors.Is(err, model.ErrInvalidAlertWindow):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.WithError(err).WithField("status", status).Warn("failed to write response")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logMiddleware logs every request once it has been served.
func logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)

		entry := log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Warn("request served")
			return
		}
		entry.Info("request served")
	})
}
