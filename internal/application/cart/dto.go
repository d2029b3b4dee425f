package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// AddItemRequest is the input for adding a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=10"`
}

// UpdateItemRequest is the input for changing a line quantity
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=10"`
}

// CartItemResponse represents one cart line in API responses
type CartItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	AddedAt     time.Time       `json:"added_at"`
}

// CartResponse represents the whole cart
type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
}

// ToCartItemResponse converts a domain cart line to the response DTO
func ToCartItemResponse(item *cart.CartItem) CartItemResponse {
	return CartItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		Price:       item.Price,
		LineTotal:   item.LineTotal(),
		AddedAt:     item.CreatedAt,
	}
}

// ToCartResponse converts cart lines to the aggregate response
func ToCartResponse(items []cart.CartItem) CartResponse {
	responses := make([]CartItemResponse, len(items))
	subtotal := decimal.Zero
	for i := range items {
		responses[i] = ToCartItemResponse(&items[i])
		subtotal = subtotal.Add(items[i].LineTotal())
	}
	return CartResponse{
		Items:     responses,
		ItemCount: len(items),
		Subtotal:  subtotal,
	}
}
