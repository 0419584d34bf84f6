package services

import (
	"context"
	"encoding/json"
	"time"

	"commerce-core/order-service/models"
	"commerce-core/pkg/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// readErrorBackoff throttles the consume loop when the broker is unreachable.
const readErrorBackoff = time.Second

// CheckoutConsumer turns checkout events published by the cart service into
// PENDING orders. The cart snapshot arrives in the event; no call back to the
// cart service is needed.
type CheckoutConsumer struct {
	reader  *kafkago.Reader
	service *OrderService
	logger  *zap.Logger
}

func NewCheckoutConsumer(brokers []string, topic, groupID string, service *OrderService, logger *zap.Logger) *CheckoutConsumer {
	return &CheckoutConsumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 10e6,
		}),
		service: service,
		logger:  logger,
	}
}

// Start blocks consuming checkout events until ctx is cancelled.
func (c *CheckoutConsumer) Start(ctx context.Context) {
	c.logger.Info("Checkout consumer listening",
		zap.String("topic", c.reader.Config().Topic),
		zap.String("group", c.reader.Config().GroupID),
	)

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Checkout consumer read error", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(readErrorBackoff):
			}
			continue
		}

		var evt events.CheckoutRequestedEvent
		if err := json.Unmarshal(m.Value, &evt); err != nil {
			c.logger.Error("Invalid checkout event payload", zap.Error(err))
			continue
		}

		req := &CreateOrderRequest{UserID: evt.UserID}
		for _, item := range evt.Items {
			req.Items = append(req.Items, OrderLineRequest{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			})
		}

		order, serr := c.service.CreateOrder(ctx, req)
		if serr != nil {
			c.logger.Error("Failed to create order from checkout event",
				zap.String("user_id", evt.UserID),
				zap.Error(serr),
			)
			continue
		}

		c.logger.Info("Order created from checkout event",
			zap.String("order_id", order.ID.String()),
			zap.String("order_number", order.OrderNumber),
			zap.String("status", string(models.OrderStatusPending)),
		)
	}
}

func (c *CheckoutConsumer) Close() error {
	return c.reader.Close()
}
