package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

// orderRepositoryInMemory in-memory реализация OrderRepository для режима без внешнего бэкенда.
// Ведёт себя как бэкенд: назначает ID и номера, проверяет переходы статусов.
type orderRepositoryInMemory struct {
	mu      sync.RWMutex
	items   map[int64]*domain.Order
	nextID  int64
	nextRow int64
	seq     int
	now     func() time.Time
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return newOrderRepository(time.Now)
}

func newOrderRepository(now func() time.Time) *orderRepositoryInMemory {
	return &orderRepositoryInMemory{
		items: make(map[int64]*domain.Order),
		now:   now,
	}
}

func (r *orderRepositoryInMemory) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return r.filter(func(*domain.Order) bool { return true }), nil
}

func (r *orderRepositoryInMemory) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.Status == status }), nil
}

// ListByDateRange возвращает заказы с датой в [start, end] включительно по дням.
func (r *orderRepositoryInMemory) ListByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Order, error) {
	from := dayOf(start)
	to := dayOf(end)
	return r.filter(func(o *domain.Order) bool {
		d := dayOf(o.OrderDate)
		return !d.Before(from) && !d.After(to)
	}), nil
}

// FindByID возвращает копию заказа или NotFoundError.
func (r *orderRepositoryInMemory) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("order", id)
	}
	return order.Clone(), nil
}

// Create сохраняет новый заказ в статусе PENDING и назначает ID позициям.
func (r *orderRepositoryInMemory) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, fmt.Errorf("order is required")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	header := *order
	header.ID = r.nextID
	header.Status = domain.OrderStatusPending
	if header.OrderNumber == "" {
		header.OrderNumber = r.numberLocked()
	}

	stored, err := r.restoreLocked(header, order.Items())
	if err != nil {
		return nil, err
	}
	r.items[stored.ID] = stored
	return stored.Clone(), nil
}

// Update заменяет заголовок и позиции заказа. Правка разрешена только в PENDING.
func (r *orderRepositoryInMemory) Update(ctx context.Context, id int64, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, fmt.Errorf("order is required")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("order", id)
	}
	if !current.IsEditable() {
		return nil, domain.ErrOrderNotEditable
	}

	header := *order
	header.ID = id
	header.Status = current.Status
	header.OrderNumber = current.OrderNumber
	header.CreatedBy = current.CreatedBy

	stored, err := r.restoreLocked(header, order.Items())
	if err != nil {
		return nil, err
	}
	r.items[id] = stored
	return stored.Clone(), nil
}

func (r *orderRepositoryInMemory) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.NewNotFoundError("order", id)
	}
	delete(r.items, id)
	return nil
}

// SetStatus применяет переход статуса, если он допустим из текущего состояния.
func (r *orderRepositoryInMemory) SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return domain.NewNotFoundError("order", id)
	}
	if !current.Status.CanTransitionTo(status) {
		return &domain.ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot change status from %s to %s", current.Status, status),
		}
	}
	current.Status = status
	return nil
}

// GenerateOrderNumber резервирует следующий номер вида OC-YYYYMMDD-NNNN.
func (r *orderRepositoryInMemory) GenerateOrderNumber(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.numberLocked(), nil
}

func (r *orderRepositoryInMemory) numberLocked() string {
	r.seq++
	return fmt.Sprintf("OC-%s-%04d", r.now().Format("20060102"), r.seq)
}

// restoreLocked пересобирает агрегат, назначая ID позициям без него.
func (r *orderRepositoryInMemory) restoreLocked(header domain.Order, items []domain.LineItem) (*domain.Order, error) {
	restored := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		id := item.ID()
		if id == 0 {
			r.nextRow++
			id = r.nextRow
		}
		saved, err := domain.RestoreLineItem(id, item.Product(), item.Quantity(), item.UnitPrice())
		if err != nil {
			return nil, err
		}
		restored = append(restored, saved)
	}
	return domain.RestoreOrder(header, restored), nil
}

func (r *orderRepositoryInMemory) filter(keep func(*domain.Order) bool) []*domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if keep(order) {
			result = append(result, order.Clone())
		}
	}

	// Новые заказы первыми, как в списке бэкенда.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].OrderDate.Equal(result[j].OrderDate) {
			return result[i].OrderDate.After(result[j].OrderDate)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
