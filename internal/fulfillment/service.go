package fulfillment

import (
	"context"
	"fmt"

	"github.com/atelierline/artmarket-backend/internal/shipping"
	"github.com/atelierline/artmarket-backend/pkg/db/models"
	"github.com/atelierline/artmarket-backend/pkg/logger"
)

// SideEffect is one post-payment action: invoice generation, shipment
// creation, buyer notification. Effects run after the paid state is
// committed; a failing effect is logged and retried out of band, it never
// unwinds the payment.
type SideEffect interface {
	Name() string
	Apply(ctx context.Context, order *models.Order) error
}

// Service fans the paid order out to the registered side effects.
type Service struct {
	effects []SideEffect
	logg    *logger.Logger
}

// NewService builds the fulfillment fan-out.
func NewService(logg *logger.Logger, effects ...SideEffect) (*Service, error) {
	for _, effect := range effects {
		if effect == nil {
			return nil, fmt.Errorf("nil side effect registered")
		}
	}
	return &Service{effects: effects, logg: logg}, nil
}

// ApplyPaid runs every side effect, swallowing individual failures.
func (s *Service) ApplyPaid(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	for _, effect := range s.effects {
		if err := effect.Apply(ctx, order); err != nil && s.logg != nil {
			loggCtx := s.logg.WithFields(ctx, map[string]any{
				"side_effect": effect.Name(),
				"order_id":    order.ID.String(),
			})
			s.logg.Error(loggCtx, "fulfillment side effect failed", err)
		}
	}
}

// ReceiptEffect sends the buyer their purchase receipt through the
// messaging service. Orders placed without an email are skipped.
type ReceiptEffect struct {
	notifier Notifier
}

// NewReceiptEffect builds the receipt side effect.
func NewReceiptEffect(notifier Notifier) *ReceiptEffect {
	return &ReceiptEffect{notifier: notifier}
}

func (e *ReceiptEffect) Name() string { return "receipt" }

func (e *ReceiptEffect) Apply(ctx context.Context, order *models.Order) error {
	if e.notifier == nil || order.Email == nil || *order.Email == "" {
		return nil
	}
	return e.notifier.Send(ctx, Notification{
		Kind:       "order_receipt",
		OrderID:    order.ID,
		Email:      *order.Email,
		TotalCents: order.TotalCents,
		Currency:   order.Currency,
	})
}

// ShipmentCreator is the carrier-facing slice of the shipping adapter used
// after payment.
type ShipmentCreator interface {
	CreateShipment(ctx context.Context, req shipping.ShipmentRequest) (*shipping.Shipment, error)
}

// ShipmentEffect registers physical orders with the carrier. Digital-only
// orders have nothing to ship and are skipped.
type ShipmentEffect struct {
	shipments ShipmentCreator
	logg      *logger.Logger
}

// NewShipmentEffect builds the shipment side effect.
func NewShipmentEffect(shipments ShipmentCreator, logg *logger.Logger) *ShipmentEffect {
	return &ShipmentEffect{shipments: shipments, logg: logg}
}

func (e *ShipmentEffect) Name() string { return "shipment" }

func (e *ShipmentEffect) Apply(ctx context.Context, order *models.Order) error {
	items := []shipping.ShipmentItem{}
	for _, item := range order.Items {
		if !item.Kind.Physical() {
			continue
		}
		items = append(items, shipping.ShipmentItem{
			Kind:  item.Kind,
			Title: item.Title,
			Qty:   item.Qty,
		})
	}
	if len(items) == 0 {
		return nil
	}
	if order.ShippingAddress == nil {
		return fmt.Errorf("physical order %s has no shipping address", order.ID)
	}

	shipment, err := e.shipments.CreateShipment(ctx, shipping.ShipmentRequest{
		OrderID: order.ID,
		Method:  order.ShippingMethod,
		ShipTo:  *order.ShippingAddress,
		Items:   items,
	})
	if err != nil {
		return err
	}
	if e.logg != nil {
		loggCtx := e.logg.WithFields(ctx, map[string]any{
			"order_id":    order.ID.String(),
			"shipment_id": shipment.ID,
		})
		e.logg.Info(loggCtx, "shipment created")
	}
	return nil
}
