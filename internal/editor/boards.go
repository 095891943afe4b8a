package editor

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

// SupplierBoard страница обслуживания справочника поставщиков.
type SupplierBoard struct {
	admin  domain.SupplierAdmin
	logger *log.Entry
	rows   []domain.Supplier
}

// NewSupplierBoard создаёт страницу поставщиков.
func NewSupplierBoard(admin domain.SupplierAdmin, logger *log.Entry) *SupplierBoard {
	if logger == nil {
		logger = log.WithField("component", "supplier-board")
	}
	return &SupplierBoard{admin: admin, logger: logger, rows: []domain.Supplier{}}
}

// Load загружает всех поставщиков, включая неактивных.
func (b *SupplierBoard) Load(ctx context.Context) error {
	return b.Search(ctx, "")
}

// Search ищет по юридическому названию; пустой запрос возвращает всех.
func (b *SupplierBoard) Search(ctx context.Context, name string) error {
	var (
		rows []domain.Supplier
		err  error
	)
	if strings.TrimSpace(name) == "" {
		rows, err = b.admin.ListAll(ctx)
	} else {
		rows, err = b.admin.SearchByName(ctx, strings.TrimSpace(name))
	}
	if err != nil {
		b.logger.WithError(err).Error("failed to load suppliers")
		return asBackendError("list suppliers", err)
	}
	b.rows = rows
	return nil
}

func (b *SupplierBoard) Rows() []domain.Supplier { return b.rows }

// Find ищет поставщика среди загруженных строк.
func (b *SupplierBoard) Find(id int64) (domain.Supplier, bool) {
	for _, s := range b.rows {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Supplier{}, false
}

// Save проверяет карточку и создаёт (без ID) или обновляет поставщика, затем перезагружает список.
func (b *SupplierBoard) Save(ctx context.Context, s domain.Supplier) (domain.Supplier, error) {
	s.TaxID = strings.TrimSpace(s.TaxID)
	if err := domain.ValidateSupplier(s); err != nil {
		return domain.Supplier{}, err
	}

	var (
		saved domain.Supplier
		err   error
	)
	if s.ID == 0 {
		saved, err = b.admin.Create(ctx, s)
	} else {
		saved, err = b.admin.Update(ctx, s.ID, s)
	}
	if err != nil {
		b.logger.WithError(err).WithField("tax_id", s.TaxID).Error("failed to save supplier")
		return domain.Supplier{}, asBackendError("save supplier", err)
	}
	return saved, b.Load(ctx)
}

func (b *SupplierBoard) Delete(ctx context.Context, id int64) error {
	if err := b.admin.Delete(ctx, id); err != nil {
		b.logger.WithError(err).WithField("supplier_id", id).Error("failed to delete supplier")
		return asBackendError("delete supplier", err)
	}
	return b.Load(ctx)
}

// ToggleActive инвертирует флаг активности загруженного поставщика.
func (b *SupplierBoard) ToggleActive(ctx context.Context, id int64) error {
	s, ok := b.Find(id)
	if !ok {
		return domain.NewNotFoundError("supplier", id)
	}
	if err := b.admin.SetActive(ctx, id, !s.Active); err != nil {
		return asBackendError("change supplier state", err)
	}
	for i := range b.rows {
		if b.rows[i].ID == id {
			b.rows[i].Active = !s.Active
		}
	}
	return nil
}

// ProductBoard — страница обслуживания каталога товаров.
type ProductBoard struct {
	admin     domain.ProductAdmin
	suppliers domain.SupplierDirectory
	logger    *log.Entry
	rows      []domain.Product
}

// NewProductBoard создаёт страницу товаров; suppliers нужен для выбора поставщика в карточке.
func NewProductBoard(admin domain.ProductAdmin, suppliers domain.SupplierDirectory, logger *log.Entry) *ProductBoard {
	if logger == nil {
		logger = log.WithField("component", "product-board")
	}
	return &ProductBoard{admin: admin, suppliers: suppliers, logger: logger, rows: []domain.Product{}}
}

func (b *ProductBoard) Load(ctx context.Context) error {
	return b.Search(ctx, "")
}

// Search ищет по названию товара; пустой запрос возвращает весь каталог.
func (b *ProductBoard) Search(ctx context.Context, name string) error {
	var (
		rows []domain.Product
		err  error
	)
	if strings.TrimSpace(name) == "" {
		rows, err = b.admin.ListAll(ctx)
	} else {
		rows, err = b.admin.SearchByName(ctx, strings.TrimSpace(name))
	}
	if err != nil {
		b.logger.WithError(err).Error("failed to load products")
		return asBackendError("list products", err)
	}
	b.rows = rows
	return nil
}

func (b *ProductBoard) Rows() []domain.Product { return b.rows }

func (b *ProductBoard) Find(id int64) (domain.Product, bool) {
	return domain.FindProduct(b.rows, id)
}

// SupplierOptions активные поставщики для выпадающего списка карточки.
func (b *ProductBoard) SupplierOptions(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := b.suppliers.ListActive(ctx)
	if err != nil {
		return nil, asBackendError("list suppliers", err)
	}
	return suppliers, nil
}

func (b *ProductBoard) Save(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := domain.ValidateProduct(p); err != nil {
		return domain.Product{}, err
	}

	var (
		saved domain.Product
		err   error
	)
	if p.ID == 0 {
		saved, err = b.admin.Create(ctx, p)
	} else {
		saved, err = b.admin.Update(ctx, p.ID, p)
	}
	if err != nil {
		b.logger.WithError(err).WithField("code", p.Code).Error("failed to save product")
		return domain.Product{}, asBackendError("save product", err)
	}
	return saved, b.Load(ctx)
}

func (b *ProductBoard) Delete(ctx context.Context, id int64) error {
	if err := b.admin.Delete(ctx, id); err != nil {
		b.logger.WithError(err).WithField("product_id", id).Error("failed to delete product")
		return asBackendError("delete product", err)
	}
	return b.Load(ctx)
}

func (b *ProductBoard) ToggleActive(ctx context.Context, id int64) error {
	p, ok := b.Find(id)
	if !ok {
		return domain.NewNotFoundError("product", id)
	}
	if err := b.admin.SetActive(ctx, id, !p.Active); err != nil {
		return asBackendError("change product state", err)
	}
	for i := range b.rows {
		if b.rows[i].ID == id {
			b.rows[i].Active = !p.Active
		}
	}
	return nil
}
