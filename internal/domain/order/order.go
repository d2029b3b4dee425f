package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/shared"
	"github.com/shopkart/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderItem is a frozen line-item snapshot captured at order creation.
// It never changes after the order is created, even if the underlying
// product is later repriced, renamed or deleted.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"not null;size:200"`
	SKU         string          `gorm:"size:64"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity    int             `gorm:"not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem creates a frozen line item from a product snapshot
func NewOrderItem(productID uuid.UUID, productName, sku string, price valueobject.Money, quantity int) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if price.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	return &OrderItem{
		ID:          uuid.New(),
		ProductID:   productID,
		ProductName: productName,
		SKU:         sku,
		Price:       price.Amount(),
		Quantity:    quantity,
		LineTotal:   price.Amount().Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt:   time.Now(),
	}, nil
}

// TimelineEntry is one append-only audit record of a status change
type TimelineEntry struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID   `gorm:"type:uuid;not null;index"`
	Status    OrderStatus `gorm:"not null;size:32"`
	Message   string      `gorm:"size:500"`
	Actor     string      `gorm:"size:100"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (TimelineEntry) TableName() string {
	return "order_timeline_entries"
}

// ShippingAddress is the delivery address captured at checkout
type ShippingAddress struct {
	FullName   string `gorm:"size:100"`
	Phone      string `gorm:"size:20"`
	Line1      string `gorm:"size:200"`
	Line2      string `gorm:"size:200"`
	City       string `gorm:"size:100"`
	State      string `gorm:"size:100"`
	PostalCode string `gorm:"size:16"`
	Country    string `gorm:"size:100"`
}

// PaymentDetails is the mutable payment sub-document of an order
type PaymentDetails struct {
	Method   PaymentMethod `gorm:"size:32;not null"`
	Status   PaymentStatus `gorm:"size:32;not null"`
	IntentID string        `gorm:"size:128;index"` // provider payment intent id
}

// Order is the aggregate root for a placed order. Line items and totals
// are immutable after creation; status, payment details and the
// timeline move through the guarded lifecycle.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber string    `gorm:"not null;size:32;uniqueIndex"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`

	Items    []OrderItem     `gorm:"foreignKey:OrderID;references:ID"`
	Timeline []TimelineEntry `gorm:"foreignKey:OrderID;references:ID"`

	Subtotal decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Tax      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Shipping decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Discount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total    decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	Status          OrderStatus     `gorm:"not null;size:32;index"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_"`
	Payment         PaymentDetails  `gorm:"embedded;embeddedPrefix:payment_"`

	TrackingNumber string `gorm:"size:64"`
	Carrier        string `gorm:"size:64"`

	ConfirmedAt  *time.Time
	ShippedAt    *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string `gorm:"size:500"`
	CancelledBy  string `gorm:"size:100"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates an order in pending status with frozen line items, a
// computed summary and the initial timeline entry.
func NewOrder(userID uuid.UUID, orderNumber string, items []OrderItem, summary Summary, address ShippingAddress, method PaymentMethod, actor string) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Cannot create an order without items")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unsupported payment method")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		UserID:            userID,
		Items:             items,
		Subtotal:          summary.Subtotal,
		Tax:               summary.Tax,
		Shipping:          summary.Shipping,
		Discount:          summary.Discount,
		Total:             summary.Total,
		Status:            StatusPending,
		ShippingAddress:   address,
		Payment: PaymentDetails{
			Method: method,
			Status: PaymentPending,
		},
	}

	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}

	o.appendTimeline(StatusPending, "Order placed", actor)

	return o, nil
}

// TransitionTo moves the order to the target status. It fails with
// *InvalidTransitionError when the target is not reachable from the
// current status, and on success appends a timeline entry and stamps
// the lifecycle timestamp for confirmed/shipped/delivered/cancelled.
func (o *Order) TransitionTo(target OrderStatus, actor, message string) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+target.String())
	}
	if !o.Status.CanTransitionTo(target) {
		return NewInvalidTransitionError(o.Status, target)
	}

	now := time.Now()
	o.Status = target
	o.UpdatedAt = now

	switch target {
	case StatusConfirmed:
		o.ConfirmedAt = &now
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
		// COD orders settle on delivery
		if o.Payment.Method == MethodCashOnDelivery && o.Payment.Status == PaymentPending {
			o.Payment.Status = PaymentCompleted
		}
	case StatusCancelled:
		o.CancelledAt = &now
	}

	if message == "" {
		message = defaultTransitionMessage(target)
	}
	o.appendTimeline(target, message, actor)

	return nil
}

// Cancel cancels the order with a reason. Only legal from pending or
// confirmed per the transition table; the caller is responsible for
// restoring stock.
func (o *Order) Cancel(actor, reason string) error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return NewInvalidTransitionError(o.Status, StatusCancelled)
	}

	o.CancelReason = reason
	o.CancelledBy = actor

	message := "Order cancelled"
	if reason != "" {
		message = "Order cancelled: " + reason
	}

	return o.TransitionTo(StatusCancelled, actor, message)
}

// SetPaymentIntent records the provider intent id created at checkout
func (o *Order) SetPaymentIntent(intentID string) {
	o.Payment.IntentID = intentID
	o.UpdatedAt = time.Now()
}

// MarkPaymentCompleted reconciles a successful payment notification.
// Idempotent: re-applying to an already completed payment is a no-op.
// Returns true when the payment state actually changed.
func (o *Order) MarkPaymentCompleted() bool {
	if o.Payment.Status == PaymentCompleted {
		return false
	}
	o.Payment.Status = PaymentCompleted
	o.UpdatedAt = time.Now()
	return true
}

// MarkPaymentFailed reconciles a failed payment notification. It does
// not force an order status transition.
func (o *Order) MarkPaymentFailed() bool {
	if o.Payment.Status == PaymentFailed {
		return false
	}
	o.Payment.Status = PaymentFailed
	o.UpdatedAt = time.Now()
	return true
}

// MarkPaymentRefunded records a full or partial refund
func (o *Order) MarkPaymentRefunded(partial bool) {
	if partial {
		o.Payment.Status = PaymentPartiallyRefunded
	} else {
		o.Payment.Status = PaymentRefunded
	}
	o.UpdatedAt = time.Now()
}

// SetTracking records shipment tracking details
func (o *Order) SetTracking(trackingNumber, carrier string) {
	o.TrackingNumber = trackingNumber
	o.Carrier = carrier
	o.UpdatedAt = time.Now()
}

// LastTimelineStatus returns the status of the most recent timeline
// entry. Invariant: it always mirrors the order status.
func (o *Order) LastTimelineStatus() OrderStatus {
	if len(o.Timeline) == 0 {
		return ""
	}
	return o.Timeline[len(o.Timeline)-1].Status
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// TotalQuantity returns the sum of all line quantities
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// IsCancellable returns true while cancellation is still legal
func (o *Order) IsCancellable() bool {
	return o.Status.CanTransitionTo(StatusCancelled)
}

// GetTotalMoney returns the order total as Money
func (o *Order) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyINR(o.Total)
}

func (o *Order) appendTimeline(status OrderStatus, message, actor string) {
	o.Timeline = append(o.Timeline, TimelineEntry{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Status:    status,
		Message:   message,
		Actor:     actor,
		CreatedAt: time.Now(),
	})
}

func defaultTransitionMessage(status OrderStatus) string {
	switch status {
	case StatusConfirmed:
		return "Order confirmed"
	case StatusProcessing:
		return "Order is being processed"
	case StatusShipped:
		return "Order shipped"
	case StatusOutForDelivery:
		return "Order is out for delivery"
	case StatusDelivered:
		return "Order delivered"
	case StatusCancelled:
		return "Order cancelled"
	case StatusReturned:
		return "Order returned"
	default:
		return "Order status updated"
	}
}
