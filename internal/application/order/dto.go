package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// ShippingAddressRequest is the delivery address supplied at checkout
type ShippingAddressRequest struct {
	FullName   string `json:"full_name" binding:"required,max=100"`
	Phone      string `json:"phone" binding:"required,max=20"`
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"required,max=100"`
	PostalCode string `json:"postal_code" binding:"required,max=16"`
	Country    string `json:"country" binding:"required,max=100"`
}

// PlaceOrderRequest is the input for placing an order from the cart
type PlaceOrderRequest struct {
	ShippingAddress ShippingAddressRequest `json:"shipping_address" binding:"required"`
	PaymentMethod   string                 `json:"payment_method" binding:"required,oneof=card cash_on_delivery"`
}

// CancelOrderRequest is the input for cancelling an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// UpdateStatusRequest is the admin input for moving an order through
// its lifecycle
type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Message string `json:"message" binding:"max=500"`
}

// OrderListFilter holds list query parameters
type OrderListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
	Search   string `form:"search"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// OrderItemResponse represents a frozen order line
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// TimelineEntryResponse represents one audit record of a status change
type TimelineEntryResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Actor     string    `json:"actor,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ShippingAddressResponse echoes the captured delivery address
type ShippingAddressResponse struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PaymentResponse represents the payment sub-document
type PaymentResponse struct {
	Method   string `json:"method"`
	Status   string `json:"status"`
	IntentID string `json:"intent_id,omitempty"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID               `json:"id"`
	OrderNumber     string                  `json:"order_number"`
	UserID          uuid.UUID               `json:"user_id"`
	Items           []OrderItemResponse     `json:"items"`
	Timeline        []TimelineEntryResponse `json:"timeline,omitempty"`
	Subtotal        decimal.Decimal         `json:"subtotal"`
	Tax             decimal.Decimal         `json:"tax"`
	Shipping        decimal.Decimal         `json:"shipping"`
	Discount        decimal.Decimal         `json:"discount"`
	Total           decimal.Decimal         `json:"total"`
	Status          string                  `json:"status"`
	ShippingAddress ShippingAddressResponse `json:"shipping_address"`
	Payment         PaymentResponse         `json:"payment"`
	TrackingNumber  string                  `json:"tracking_number,omitempty"`
	Carrier         string                  `json:"carrier,omitempty"`
	ConfirmedAt     *time.Time              `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time              `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time              `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time              `json:"cancelled_at,omitempty"`
	CancelReason    string                  `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// PlaceOrderResponse carries the created order plus the client secret
// card checkouts need to complete payment on the frontend
type PlaceOrderResponse struct {
	Order        OrderResponse `json:"order"`
	ClientSecret string        `json:"client_secret,omitempty"`
}

// OrderListItemResponse represents an order in list responses
type OrderListItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"order_number"`
	ItemCount   int             `json:"item_count"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// StatusSummaryResponse is the admin dashboard count per status
type StatusSummaryResponse struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// ToOrderResponse converts a domain order to the response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i := range o.Items {
		items[i] = OrderItemResponse{
			ID:          o.Items[i].ID,
			ProductID:   o.Items[i].ProductID,
			ProductName: o.Items[i].ProductName,
			SKU:         o.Items[i].SKU,
			Price:       o.Items[i].Price,
			Quantity:    o.Items[i].Quantity,
			LineTotal:   o.Items[i].LineTotal,
		}
	}

	timeline := make([]TimelineEntryResponse, len(o.Timeline))
	for i := range o.Timeline {
		timeline[i] = TimelineEntryResponse{
			Status:    string(o.Timeline[i].Status),
			Message:   o.Timeline[i].Message,
			Actor:     o.Timeline[i].Actor,
			CreatedAt: o.Timeline[i].CreatedAt,
		}
	}

	return OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Items:       items,
		Timeline:    timeline,
		Subtotal:    o.Subtotal,
		Tax:         o.Tax,
		Shipping:    o.Shipping,
		Discount:    o.Discount,
		Total:       o.Total,
		Status:      string(o.Status),
		ShippingAddress: ShippingAddressResponse{
			FullName:   o.ShippingAddress.FullName,
			Phone:      o.ShippingAddress.Phone,
			Line1:      o.ShippingAddress.Line1,
			Line2:      o.ShippingAddress.Line2,
			City:       o.ShippingAddress.City,
			State:      o.ShippingAddress.State,
			PostalCode: o.ShippingAddress.PostalCode,
			Country:    o.ShippingAddress.Country,
		},
		Payment: PaymentResponse{
			Method:   string(o.Payment.Method),
			Status:   string(o.Payment.Status),
			IntentID: o.Payment.IntentID,
		},
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
		ConfirmedAt:    o.ConfirmedAt,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
		CancelledAt:    o.CancelledAt,
		CancelReason:   o.CancelReason,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// ToOrderListItemResponses converts domain orders to list DTOs
func ToOrderListItemResponses(orders []order.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		responses[i] = OrderListItemResponse{
			ID:          orders[i].ID,
			OrderNumber: orders[i].OrderNumber,
			ItemCount:   orders[i].ItemCount(),
			Total:       orders[i].Total,
			Status:      string(orders[i].Status),
			CreatedAt:   orders[i].CreatedAt,
		}
	}
	return responses
}

// toShippingAddress converts the request DTO to the domain value
func toShippingAddress(req ShippingAddressRequest) order.ShippingAddress {
	return order.ShippingAddress{
		FullName:   req.FullName,
		Phone:      req.Phone,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
}
