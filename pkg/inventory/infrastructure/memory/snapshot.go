package memory

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/domain/model"
)

const snapshotDateLayout = "2006-01-02"

type snapshotJSON struct {
	Products  []productJSON         `json:"products"`
	Templates []model.TemplateItem  `json:"templates"`
	Batches   []batchJSON           `json:"batches"`
	Settings  map[string]string     `json:"settings"`
	Movements []model.StockMovement `json:"movements"`
}

type productJSON struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	CurrentStock int       `json:"currentStock"`
	ExpiryDate   string    `json:"expiryDate,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type batchJSON struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	Quantity   int       `json:"quantity"`
	ExpiryDate string    `json:"expiryDate,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LoadSnapshot restores a store saved with SaveSnapshot. A missing file gives
// an empty store.
func LoadSnapshot(path string, clock dates.Clock) (*Store, error) {
	s := NewStore(clock)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read snapshot")
	}

	var snap snapshotJSON
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, "failed to decode snapshot")
	}

	for _, p := range snap.Products {
		expiry, err := readSnapshotDate(p.ExpiryDate)
		if err != nil {
			return nil, errors.Wrapf(err, "product %s", p.ID)
		}
		s.products[p.ID] = model.Product{
			ID:           p.ID,
			Name:         p.Name,
			Category:     model.NormalizeCategory(p.Category),
			Description:  p.Description,
			CurrentStock: p.CurrentStock,
			ExpiryDate:   expiry,
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		}
	}
	for _, t := range snap.Templates {
		s.templates[t.ProductID] = t
	}
	for _, b := range snap.Batches {
		expiry, err := readSnapshotDate(b.ExpiryDate)
		if err != nil {
			return nil, errors.Wrapf(err, "batch %s", b.ID)
		}
		s.batches[b.ProductID] = append(s.batches[b.ProductID], model.Batch{
			ID:         b.ID,
			ProductID:  b.ProductID,
			Quantity:   b.Quantity,
			ExpiryDate: expiry,
			CreatedAt:  b.CreatedAt,
		})
	}
	for k, v := range snap.Settings {
		s.settings[k] = v
	}
	s.movements = snap.Movements
	return s, nil
}

func (s *Store) SaveSnapshot(path string) error {
	s.mu.Lock()
	snap := snapshotJSON{Settings: s.settings, Movements: s.movements}
	for _, p := range s.products {
		snap.Products = append(snap.Products, productJSON{
			ID:           p.ID,
			Name:         p.Name,
			Category:     p.Category,
			Description:  p.Description,
			CurrentStock: p.CurrentStock,
			ExpiryDate:   writeSnapshotDate(p.ExpiryDate),
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		})
	}
	for _, t := range s.templates {
		snap.Templates = append(snap.Templates, t)
	}
	for _, batches := range s.batches {
		for _, b := range batches {
			snap.Batches = append(snap.Batches, batchJSON{
				ID:         b.ID,
				ProductID:  b.ProductID,
				Quantity:   b.Quantity,
				ExpiryDate: writeSnapshotDate(b.ExpiryDate),
				CreatedAt:  b.CreatedAt,
			})
		}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "failed to encode snapshot")
	}

	return errors.Wrap(os.WriteFile(path, data, 0o644), "failed to write snapshot")
}

func readSnapshotDate(raw string) (*dates.CalendarDate, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(snapshotDateLayout, raw)
	if err != nil {
		return nil, errors.Wrapf(dates.ErrUnparsableDate, "%q", raw)
	}
	d := dates.DateOf(t)
	return &d, nil
}

func writeSnapshotDate(d *dates.CalendarDate) string {
	if d == nil {
		return ""
	}
	return d.In(time.UTC).Format(snapshotDateLayout)
}
