package transport

import (
	"time"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/domain/model"
	domain "stockly/pkg/inventory/domain/service"
)

type createProductRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	InitialStock int    `json:"initialStock"`
	ExpiryDate   string `json:"expiryDate"`
}

// updateProductRequest leaves nil fields untouched. An empty expiryDate
// clears the date.
type updateProductRequest struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	ExpiryDate  *string `json:"expiryDate"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type purchaseRequest struct {
	Quantity   int    `json:"quantity"`
	ExpiryDate string `json:"expiryDate"`
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

type stockRequest struct {
	Stock int `json:"stock"`
}

type templateRequest struct {
	IdealQuantity int    `json:"idealQuantity"`
	Priority      string `json:"priority"`
}

type alertDaysRequest struct {
	ExpiryAlertDays int `json:"expiryAlertDays"`
}

type productResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	CurrentStock  int       `json:"currentStock"`
	ExpiryDate    *string   `json:"expiryDate"`
	ExpiryDisplay string    `json:"expiryDisplay"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type drawResponse struct {
	BatchID    string  `json:"batchId"`
	ExpiryDate *string `json:"expiryDate"`
	Taken      int     `json:"taken"`
	Remaining  int     `json:"remaining"`
}

type consumptionResponse struct {
	ProductID      string         `json:"productId"`
	Quantity       int            `json:"quantity"`
	RemainingStock int            `json:"remainingStock"`
	Draws          []drawResponse `json:"draws"`
}

type templateResponse struct {
	ID            string         `json:"id"`
	ProductID     string         `json:"productId"`
	IdealQuantity int            `json:"idealQuantity"`
	Priority      model.Priority `json:"priority"`
}

type shoppingEntryResponse struct {
	ProductID      string         `json:"productId"`
	ProductName    string         `json:"productName"`
	Category       string         `json:"category"`
	NeededQuantity int            `json:"neededQuantity"`
	Priority       model.Priority `json:"priority"`
}

type dashboardResponse struct {
	TotalProducts     int `json:"totalProducts"`
	TotalItems        int `json:"totalItems"`
	ExpiringSoonCount int `json:"expiringSoonCount"`
	LowStockCount     int `json:"lowStockCount"`
	ExpiredCount      int `json:"expiredCount"`
	ExpiryAlertDays   int `json:"expiryAlertDays"`
}

type expiringResponse struct {
	Product         productResponse `json:"product"`
	Status          string          `json:"status"`
	DaysUntilExpiry *int            `json:"daysUntilExpiry"`
}

type expiryGroupsResponse struct {
	Expired  []expiringResponse `json:"expired"`
	Today    []expiringResponse `json:"today"`
	Tomorrow []expiringResponse `json:"tomorrow"`
	Soon     []expiringResponse `json:"soon"`
	NoDate   []expiringResponse `json:"noDate"`
}

type alertDaysResponse struct {
	ExpiryAlertDays int `json:"expiryAlertDays"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Shortfall int    `json:"shortfall,omitempty"`
}

func (h *Handler) storageDate(d *dates.CalendarDate) *string {
	if d == nil {
		return nil
	}
	s := d.StorageString(h.loc)
	return &s
}

func (h *Handler) toProductResponse(p model.Product) productResponse {
	display := dates.NoDateLabel
	if p.ExpiryDate != nil {
		display = p.ExpiryDate.String()
	}
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Category:      p.Category,
		Description:   p.Description,
		CurrentStock:  p.CurrentStock,
		ExpiryDate:    h.storageDate(p.ExpiryDate),
		ExpiryDisplay: display,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (h *Handler) toConsumptionResponse(r *domain.ConsumptionResult) consumptionResponse {
	draws := make([]drawResponse, 0, len(r.Draws))
	for _, d := range r.Draws {
		draws = append(draws, drawResponse{
			BatchID:    d.BatchID,
			ExpiryDate: h.storageDate(d.ExpiryDate),
			Taken:      d.Taken,
			Remaining:  d.Remaining,
		})
	}
	return consumptionResponse{
		ProductID:      r.ProductID,
		Quantity:       r.Quantity,
		RemainingStock: r.RemainingStock,
		Draws:          draws,
	}
}

func toTemplateResponse(t model.TemplateItem) templateResponse {
	return templateResponse{
		ID:            t.ID,
		ProductID:     t.ProductID,
		IdealQuantity: t.IdealQuantity,
		Priority:      t.Priority,
	}
}

func (h *Handler) toExpiringResponses(items []domain.ExpiringProduct) []expiringResponse {
	resp := make([]expiringResponse, 0, len(items))
	for _, item := range items {
		entry := expiringResponse{
			Product: h.toProductResponse(item.Product),
			Status:  item.Classification.Status.String(),
		}
		if item.Classification.HasDate {
			days := item.Classification.DaysUntil
			entry.DaysUntilExpiry = &days
		}
		resp = append(resp, entry)
	}
	return resp
}

func (h *Handler) toExpiryGroupsResponse(g *domain.ExpiryGroups) expiryGroupsResponse {
	return expiryGroupsResponse{
		Expired:  h.toExpiringResponses(g.Expired),
		Today:    h.toExpiringResponses(g.Today),
		Tomorrow: h.toExpiringResponses(g.Tomorrow),
		Soon:     h.toExpiringResponses(g.Soon),
		NoDate:   h.toExpiringResponses(g.NoDate),
	}
}
