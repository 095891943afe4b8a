package domain

import (
	"context"
	"time"
)

// SupplierDirectory отдаёт справочник поставщиков для выбора в заказе.
type SupplierDirectory interface {
	ListActive(ctx context.Context) ([]Supplier, error)
}

// ProductCatalog отдаёт каталог товаров.
type ProductCatalog interface {
	ListActive(ctx context.Context) ([]Product, error)
	// ListBySupplier возвращает товары поставщика, в том числе неактивные.
	ListBySupplier(ctx context.Context, supplierID int64) ([]Product, error)
}

// SupplierAdmin операции обслуживания справочника поставщиков.
type SupplierAdmin interface {
	SupplierDirectory
	ListAll(ctx context.Context) ([]Supplier, error)
	FindByID(ctx context.Context, id int64) (Supplier, error)
	SearchByName(ctx context.Context, name string) ([]Supplier, error)
	Create(ctx context.Context, s Supplier) (Supplier, error)
	Update(ctx context.Context, id int64, s Supplier) (Supplier, error)
	Delete(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// ProductAdmin — операции обслуживания каталога товаров.
type ProductAdmin interface {
	ProductCatalog
	ListAll(ctx context.Context) ([]Product, error)
	FindByID(ctx context.Context, id int64) (Product, error)
	SearchByName(ctx context.Context, name string) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int64, p Product) (Product, error)
	Delete(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// OrderRepository описывает операции с заказами на стороне бэкенда.
// Переходы статусов применяет бэкенд.
type OrderRepository interface {
	ListAll(ctx context.Context) ([]*Order, error)
	ListByStatus(ctx context.Context, status OrderStatus) ([]*Order, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*Order, error)
	// FindByID возвращает NotFoundError, если заказа нет.
	FindByID(ctx context.Context, id int64) (*Order, error)
	Create(ctx context.Context, order *Order) (*Order, error)
	Update(ctx context.Context, id int64, order *Order) (*Order, error)
	Delete(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status OrderStatus) error
	GenerateOrderNumber(ctx context.Context) (string, error)
}

// EventPublisher уведомляет внешние системы об изменениях заказов.
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// TimelineRepository хранит журнал действий над заказами.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) error
	List(ctx context.Context, orderID int64) ([]TimelineEvent, error)
}

// CredentialStore находит учётные записи пользователей админки.
type CredentialStore interface {
	// Lookup возвращает NotFoundError, если пользователя нет.
	Lookup(ctx context.Context, username string) (User, error)
}

// SessionStore хранит сессии входа.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	// Get возвращает NotFoundError для отсутствующей или истёкшей сессии.
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}
