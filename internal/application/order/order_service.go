package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/order"
	"github.com/shopkart/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderService handles order queries and lifecycle transitions
type OrderService struct {
	orderRepo    order.OrderRepository
	checkoutRepo order.CheckoutRepository
	logger       *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo order.OrderRepository, checkoutRepo order.CheckoutRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		checkoutRepo: checkoutRepo,
		logger:       logger,
	}
}

// ListForUser retrieves the user's orders with pagination
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	domainFilter := buildFilter(filter)

	orders, err := s.orderRepo.FindAllByUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.CountByUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOrderListItemResponses(orders), total, nil
}

// GetForUser retrieves one of the user's orders with items and timeline
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByIDForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Cancel cancels one of the user's orders and restores the reserved
// stock. Only legal from pending or confirmed; a second cancel fails
// with *order.InvalidTransitionError.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	o, err := s.applyWithRetry(ctx,
		func(ctx context.Context) (*order.Order, error) {
			return s.orderRepo.FindByIDForUser(ctx, userID, orderID)
		},
		func(ctx context.Context, o *order.Order) error {
			if err := o.Cancel("customer", req.Reason); err != nil {
				return err
			}
			return s.checkoutRepo.RestockOrder(ctx, o, stockLinesFromItems(o.Items))
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order cancelled",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("cancelled_by", "customer"))

	resp := ToOrderResponse(o)
	return &resp, nil
}

// List retrieves orders across all users (admin)
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	domainFilter := buildFilter(filter)

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOrderListItemResponses(orders), total, nil
}

// Get retrieves any order by ID (admin)
func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// UpdateStatus moves an order to the requested status (admin). Moving
// to cancelled or returned also restores the reserved stock; every
// other move is a plain guarded transition.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	target := order.OrderStatus(req.Status)
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+req.Status)
	}

	o, err := s.applyWithRetry(ctx,
		func(ctx context.Context) (*order.Order, error) {
			return s.orderRepo.FindByID(ctx, orderID)
		},
		func(ctx context.Context, o *order.Order) error {
			switch target {
			case order.StatusCancelled:
				if err := o.Cancel("admin", req.Message); err != nil {
					return err
				}
				return s.checkoutRepo.RestockOrder(ctx, o, stockLinesFromItems(o.Items))
			case order.StatusReturned:
				// returned goods go back on the shelf
				if err := o.TransitionTo(target, "admin", req.Message); err != nil {
					return err
				}
				return s.checkoutRepo.RestockOrder(ctx, o, stockLinesFromItems(o.Items))
			default:
				if err := o.TransitionTo(target, "admin", req.Message); err != nil {
					return err
				}
				return s.orderRepo.SaveWithLock(ctx, o)
			}
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("status", target.String()))

	resp := ToOrderResponse(o)
	return &resp, nil
}

// Summary returns order counts per status (admin dashboard)
func (s *OrderService) Summary(ctx context.Context) (*StatusSummaryResponse, error) {
	counts := make(map[string]int64, len(order.AllStatuses()))
	var total int64
	for _, status := range order.AllStatuses() {
		count, err := s.orderRepo.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		counts[status.String()] = count
		total += count
	}
	return &StatusSummaryResponse{Counts: counts, Total: total}, nil
}

// applyWithRetry loads an order, applies the mutation and retries once
// when the optimistic version check loses to a concurrent writer. The
// retry re-reads the order so the mutation is re-evaluated against the
// winner's state.
func (s *OrderService) applyWithRetry(ctx context.Context, load func(context.Context) (*order.Order, error), mutate func(context.Context, *order.Order) error) (*order.Order, error) {
	o, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if err := mutate(ctx, o); err != shared.ErrConcurrencyConflict {
		if err != nil {
			return nil, err
		}
		return o, nil
	}

	s.logger.Warn("Concurrent order update, retrying",
		zap.String("order_id", o.ID.String()))

	o, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if err := mutate(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func buildFilter(filter OrderListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	return domainFilter
}

func stockLinesFromItems(items []order.OrderItem) []order.StockLine {
	lines := make([]order.StockLine, len(items))
	for i := range items {
		lines[i] = order.StockLine{
			ProductID:   items[i].ProductID,
			ProductName: items[i].ProductName,
			Quantity:    items[i].Quantity,
		}
	}
	return lines
}
