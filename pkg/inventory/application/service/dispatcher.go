package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/domain/model"
)

// NewMovementDispatcher records every stock change as a stock movement.
// Other events are only logged.
func NewMovementDispatcher(movements model.MovementRepository, clock dates.Clock, logger logrus.FieldLogger) EventDispatcher {
	return &movementDispatcher{movements: movements, clock: clock, logger: logger}
}

type movementDispatcher struct {
	movements model.MovementRepository
	clock     dates.Clock
	logger    logrus.FieldLogger
}

func (d *movementDispatcher) Dispatch(ctx context.Context, event model.Event) error {
	changed, ok := event.(model.ProductStockChanged)
	if !ok {
		d.logger.WithField("event", event.Type()).Debug("event dispatched")
		return nil
	}

	quantity := changed.ChangeAmount
	if quantity < 0 {
		quantity = -quantity
	}
	movement := model.StockMovement{
		ID:        uuid.NewString(),
		ProductID: changed.ProductID,
		Type:      changed.Movement,
		Quantity:  quantity,
		Reason:    movementReason(changed.Movement),
		CreatedAt: d.clock.Now(),
	}
	if err := d.movements.Append(ctx, movement); err != nil {
		return err
	}

	d.logger.WithFields(logrus.Fields{
		"productID":   changed.ProductID,
		"movement":    changed.Movement,
		"change":      changed.ChangeAmount,
		"newQuantity": changed.NewQuantity,
	}).Info("stock changed")
	return nil
}

func movementReason(t model.MovementType) string {
	switch t {
	case model.MovementAdd:
		return "purchase"
	case model.MovementExpired:
		return "discarded"
	default:
		return "consumption"
	}
}
