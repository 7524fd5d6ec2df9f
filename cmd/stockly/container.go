package main

import (
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/application/service"
	"stockly/pkg/inventory/domain/model"
	domain "stockly/pkg/inventory/domain/service"
	"stockly/pkg/inventory/infrastructure/memory"
	"stockly/pkg/inventory/infrastructure/mysql"
)

type repositories interface {
	Products() model.ProductRepository
	Templates() model.TemplateRepository
	Batches() model.BatchRepository
	Settings() model.SettingsRepository
	Movements() model.MovementRepository
}

type container struct {
	inventory service.InventoryService
	loc       *time.Location
	db        *sqlx.DB
	memory    *memory.Store
	snapshot  string
}

func newContainer(c *config) (*container, error) {
	loc, err := c.location()
	if err != nil {
		return nil, err
	}
	clock := dates.SystemClock{Location: loc}
	logger := log.StandardLogger()

	cont := &container{loc: loc}
	var repos repositories
	switch c.Store {
	case storeMemory:
		cont.snapshot = c.MemorySnapshot
		if cont.snapshot == "" {
			cont.memory = memory.NewStore(clock)
		} else if cont.memory, err = memory.LoadSnapshot(cont.snapshot, clock); err != nil {
			return nil, err
		}
		repos = cont.memory
	default:
		cont.db, err = mysql.Open(c.DatabaseDSN, loc)
		if err != nil {
			return nil, err
		}
		repos = mysql.NewStore(cont.db, loc, clock, logger)
	}

	batches := repos.Batches()
	if c.StockModel == stockModelProduct {
		batches = domain.NewProductBatchRepository(repos.Products())
	}

	cont.inventory = service.NewInventoryService(service.Repositories{
		Products:  repos.Products(),
		Templates: repos.Templates(),
		Settings:  repos.Settings(),
		Batches:   batches,
	}, service.NewMovementDispatcher(repos.Movements(), clock, logger), clock, logger)

	log.WithFields(log.Fields{
		"store":      c.Store,
		"stockModel": c.StockModel,
		"location":   loc.String(),
	}).Info("inventory ready")
	return cont, nil
}

// Close releases the database, or writes the memory store back to its
// snapshot file when one is configured.
func (c *container) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	if c.memory != nil && c.snapshot != "" {
		return c.memory.SaveSnapshot(c.snapshot)
	}
	return nil
}
