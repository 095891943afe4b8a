package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

const ordersPath = "/ordenes-compra"

// OrderClient реализует domain.OrderRepository поверх REST.
type OrderClient struct {
	c *Client
}

func (o *OrderClient) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return o.list(ctx, "list orders", ordersPath, nil)
}

func (o *OrderClient) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	wire, err := wireStatus(status)
	if err != nil {
		return nil, err
	}
	return o.list(ctx, "list orders by status", ordersPath+"/estado/"+wire, nil)
}

func (o *OrderClient) ListByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Order, error) {
	query := url.Values{}
	query.Set("inicio", start.Format(dateLayout))
	query.Set("fin", end.Format(dateLayout))
	return o.list(ctx, "list orders by date", ordersPath+"/fechas", query)
}

// FindByID возвращает NotFoundError, если бэкенд ответил 404.
func (o *OrderClient) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	dto, err := call[orderDTO](ctx, o.c, "find order", http.MethodGet, orderPath(id), nil, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFoundError("order", id)
		}
		return nil, err
	}
	return decodeOrder("find order", dto)
}

func (o *OrderClient) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	body, err := orderToDTO(order)
	if err != nil {
		return nil, err
	}
	dto, err := call[orderDTO](ctx, o.c, "create order", http.MethodPost, ordersPath, nil, body)
	if err != nil {
		return nil, err
	}
	return decodeOrder("create order", dto)
}

func (o *OrderClient) Update(ctx context.Context, id int64, order *domain.Order) (*domain.Order, error) {
	body, err := orderToDTO(order)
	if err != nil {
		return nil, err
	}
	body.ID = id
	dto, err := call[orderDTO](ctx, o.c, "update order", http.MethodPut, orderPath(id), nil, body)
	if err != nil {
		return nil, err
	}
	return decodeOrder("update order", dto)
}

func (o *OrderClient) Delete(ctx context.Context, id int64) error {
	_, err := call[json.RawMessage](ctx, o.c, "delete order", http.MethodDelete, orderPath(id), nil, nil)
	if isNotFound(err) {
		return domain.NewNotFoundError("order", id)
	}
	return err
}

func (o *OrderClient) SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	wire, err := wireStatus(status)
	if err != nil {
		return err
	}
	query := url.Values{}
	query.Set("estado", wire)
	_, err = call[json.RawMessage](ctx, o.c, "change order status", http.MethodPatch, orderPath(id)+"/estado", query, nil)
	return err
}

func (o *OrderClient) GenerateOrderNumber(ctx context.Context) (string, error) {
	return call[string](ctx, o.c, "generate order number", http.MethodGet, ordersPath+"/generar-numero", nil, nil)
}

func (o *OrderClient) list(ctx context.Context, op, path string, query url.Values) ([]*domain.Order, error) {
	dtos, err := call[[]orderDTO](ctx, o.c, op, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	orders, skipped := ordersToDomain(dtos)
	for _, err := range skipped {
		o.c.logger.WithError(err).WithField("op", op).Warn("order row skipped")
	}
	return orders, nil
}

func decodeOrder(op string, dto orderDTO) (*domain.Order, error) {
	order, err := dto.toDomain()
	if err != nil {
		return nil, domain.NewBackendError(op, err)
	}
	return order, nil
}

func orderPath(id int64) string {
	return ordersPath + "/" + strconv.FormatInt(id, 10)
}

var _ domain.OrderRepository = (*OrderClient)(nil)
