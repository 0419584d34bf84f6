package services

import (
	"context"
	"encoding/json"
	"time"

	"commerce-core/cart-service/database"
	"commerce-core/cart-service/models"
	cerrors "commerce-core/common/errors"
	"commerce-core/common/lock"
	aws_pkg "commerce-core/pkg/aws"
	"commerce-core/pkg/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddItemRequest is the payload for adding a line to a cart.
type AddItemRequest struct {
	ProductID       string          `json:"product_id" binding:"required"`
	ProductName     string          `json:"product_name"`
	ProductImageURL string          `json:"product_image_url"`
	Quantity        int             `json:"quantity" binding:"required"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// CartService owns all cart mutations. Every read-modify-write holds the
// per-user lock so concurrent requests against the same cart cannot race.
type CartService struct {
	repo        database.CartStore
	producer    events.ProducerAPI
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	locks       *lock.KeyedMutex
	logger      *zap.Logger
}

func NewCartService(repo database.CartStore, producer events.ProducerAPI, snsClient aws_pkg.SNSPublisher, snsTopicArn string, logger *zap.Logger) *CartService {
	return &CartService{
		repo:        repo,
		producer:    producer,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		locks:       lock.NewKeyedMutex(),
		logger:      logger,
	}
}

// GetOrCreateCart returns the user's cart, creating an empty one on first access.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, *cerrors.Error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.getOrCreate(ctx, userID)
}

// AddItem merges the requested line into the user's cart and recomputes the total.
func (s *CartService) AddItem(ctx context.Context, userID string, req *AddItemRequest) (*models.Cart, *cerrors.Error) {
	if req.Quantity < 1 {
		return nil, cerrors.Validation("quantity must be at least 1")
	}
	if req.UnitPrice.IsNegative() {
		return nil, cerrors.Validation("unit price must not be negative")
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, serr := s.getOrCreate(ctx, userID)
	if serr != nil {
		return nil, serr
	}

	cart.AddItem(models.CartItem{
		ProductID:       req.ProductID,
		ProductName:     req.ProductName,
		ProductImageURL: req.ProductImageURL,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
	})

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, cerrors.Internal(err, "failed to save cart")
	}

	s.logger.Info("Added item to cart",
		zap.String("user_id", userID),
		zap.String("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity),
	)
	return cart, nil
}

// UpdateItemQuantity sets a line's quantity in place; zero or less removes the
// line. A product absent from the cart is a no-op.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, *cerrors.Error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, serr := s.getExisting(ctx, userID)
	if serr != nil {
		return nil, serr
	}

	cart.UpdateItemQuantity(productID, quantity)

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, cerrors.Internal(err, "failed to save cart")
	}

	s.logger.Info("Updated item quantity",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
	)
	return cart, nil
}

// RemoveItem removes the line for productID. Removing an absent product is not
// an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, *cerrors.Error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, serr := s.getExisting(ctx, userID)
	if serr != nil {
		return nil, serr
	}

	cart.RemoveItem(productID)

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, cerrors.Internal(err, "failed to save cart")
	}

	s.logger.Info("Removed item from cart",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
	)
	return cart, nil
}

// ClearCart empties the line list and resets the total to zero.
func (s *CartService) ClearCart(ctx context.Context, userID string) *cerrors.Error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, serr := s.getExisting(ctx, userID)
	if serr != nil {
		return serr
	}

	cart.Clear()

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return cerrors.Internal(err, "failed to save cart")
	}

	s.logger.Info("Cleared cart", zap.String("user_id", userID))
	return nil
}

// DeleteCart removes the stored cart entirely. Deleting a missing cart is a no-op.
func (s *CartService) DeleteCart(ctx context.Context, userID string) *cerrors.Error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.repo.DeleteCart(ctx, userID); err != nil {
		return cerrors.Internal(err, "failed to delete cart")
	}

	s.logger.Info("Deleted cart", zap.String("user_id", userID))
	return nil
}

// ItemCount returns the number of lines in the user's cart; a missing cart
// counts as zero.
func (s *CartService) ItemCount(ctx context.Context, userID string) (int, *cerrors.Error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return 0, cerrors.Internal(err, "failed to get cart")
	}
	if cart == nil {
		return 0, nil
	}
	return len(cart.Items), nil
}

// ContainsProduct reports whether the user's cart has a line for productID; a
// missing cart yields false.
func (s *CartService) ContainsProduct(ctx context.Context, userID, productID string) (bool, *cerrors.Error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return false, cerrors.Internal(err, "failed to get cart")
	}
	if cart == nil {
		return false, nil
	}
	return cart.ContainsProduct(productID), nil
}

// Checkout publishes the cart snapshot as a checkout event and clears the
// cart. Downstream order creation is driven by the consumer of that event.
// Order creation requires a UUID user ID, so anything else is rejected here,
// before the cart is cleared.
func (s *CartService) Checkout(ctx context.Context, userID string) *cerrors.Error {
	if _, err := uuid.Parse(userID); err != nil {
		return cerrors.Validation("invalid user ID format")
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, serr := s.getExisting(ctx, userID)
	if serr != nil {
		return serr
	}
	if len(cart.Items) == 0 {
		return cerrors.Validation("cart is empty")
	}

	event := events.CheckoutRequestedEvent{
		Event:     events.TopicCheckoutRequested,
		UserID:    userID,
		Timestamp: time.Now(),
	}
	for _, item := range cart.Items {
		event.Items = append(event.Items, events.CheckoutItemEvent{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	if err := s.producer.Publish(ctx, events.TopicCheckoutRequested, userID, event); err != nil {
		return cerrors.Internal(err, "failed to publish checkout event")
	}

	// SNS fan-out is best-effort; a failure must not fail the checkout.
	if s.snsClient != nil && s.snsTopicArn != "" {
		if data, err := json.Marshal(event); err != nil {
			s.logger.Warn("Failed to marshal checkout event for SNS", zap.Error(err))
		} else if err := s.snsClient.Publish(ctx, s.snsTopicArn, data); err != nil {
			s.logger.Warn("SNS publish failed", zap.Error(err))
		}
	}

	if err := s.repo.DeleteCart(ctx, userID); err != nil {
		s.logger.Warn("Failed to clear cart after checkout",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	s.logger.Info("Checkout initiated", zap.String("user_id", userID))
	return nil
}

func (s *CartService) getOrCreate(ctx context.Context, userID string) (*models.Cart, *cerrors.Error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, cerrors.Internal(err, "failed to get cart")
	}
	if cart == nil {
		cart = models.NewCart(userID)
		if err := s.repo.SaveCart(ctx, cart); err != nil {
			return nil, cerrors.Internal(err, "failed to create cart")
		}
		s.logger.Info("Created new cart", zap.String("user_id", userID))
	}
	return cart, nil
}

func (s *CartService) getExisting(ctx context.Context, userID string) (*models.Cart, *cerrors.Error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, cerrors.Internal(err, "failed to get cart")
	}
	if cart == nil {
		return nil, cerrors.NotFound("Cart not found for user: %s", userID)
	}
	return cart, nil
}
