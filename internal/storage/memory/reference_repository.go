package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

// SupplierRepository — in-memory справочник поставщиков.
type SupplierRepository struct {
	mu     sync.RWMutex
	items  map[int64]domain.Supplier
	nextID int64
}

// NewSupplierRepository создаёт пустой справочник поставщиков.
func NewSupplierRepository() *SupplierRepository {
	return &SupplierRepository{items: make(map[int64]domain.Supplier)}
}

func (r *SupplierRepository) ListActive(ctx context.Context) ([]domain.Supplier, error) {
	return r.filter(func(s domain.Supplier) bool { return s.Active }), nil
}

func (r *SupplierRepository) ListAll(ctx context.Context) ([]domain.Supplier, error) {
	return r.filter(func(domain.Supplier) bool { return true }), nil
}

func (r *SupplierRepository) FindByID(ctx context.Context, id int64) (domain.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[id]
	if !ok {
		return domain.Supplier{}, domain.NewNotFoundError("supplier", id)
	}
	return s, nil
}

// SearchByName ищет по вхождению в юридическое название без учёта регистра.
func (r *SupplierRepository) SearchByName(ctx context.Context, name string) ([]domain.Supplier, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	return r.filter(func(s domain.Supplier) bool {
		return strings.Contains(strings.ToLower(s.LegalName), needle)
	}), nil
}

func (r *SupplierRepository) Create(ctx context.Context, s domain.Supplier) (domain.Supplier, error) {
	if err := domain.ValidateSupplier(s); err != nil {
		return domain.Supplier{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.TaxID == s.TaxID {
			return domain.Supplier{}, &domain.ValidationError{Field: "tax_id", Message: "a supplier with this tax id already exists"}
		}
	}

	r.nextID++
	now := time.Now().UTC()
	s.ID = r.nextID
	s.RegisteredAt = now
	s.UpdatedAt = now
	r.items[s.ID] = s
	return s, nil
}

func (r *SupplierRepository) Update(ctx context.Context, id int64, s domain.Supplier) (domain.Supplier, error) {
	if err := domain.ValidateSupplier(s); err != nil {
		return domain.Supplier{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return domain.Supplier{}, domain.NewNotFoundError("supplier", id)
	}
	s.ID = id
	s.RegisteredAt = current.RegisteredAt
	s.UpdatedAt = time.Now().UTC()
	r.items[id] = s
	return s, nil
}

func (r *SupplierRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.NewNotFoundError("supplier", id)
	}
	delete(r.items, id)
	return nil
}

func (r *SupplierRepository) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[id]
	if !ok {
		return domain.NewNotFoundError("supplier", id)
	}
	s.Active = active
	s.UpdatedAt = time.Now().UTC()
	r.items[id] = s
	return nil
}

func (r *SupplierRepository) name(id int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items[id].LegalName
}

func (r *SupplierRepository) filter(keep func(domain.Supplier) bool) []domain.Supplier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Supplier, 0, len(r.items))
	for _, s := range r.items {
		if keep(s) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// ProductRepository in-memory каталог товаров. Название поставщика
// подставляется из справочника при чтении.
type ProductRepository struct {
	mu        sync.RWMutex
	items     map[int64]domain.Product
	nextID    int64
	suppliers *SupplierRepository
}

// NewProductRepository создаёт пустой каталог, связанный со справочником поставщиков.
func NewProductRepository(suppliers *SupplierRepository) *ProductRepository {
	return &ProductRepository{
		items:     make(map[int64]domain.Product),
		suppliers: suppliers,
	}
}

func (r *ProductRepository) ListActive(ctx context.Context) ([]domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return p.Active }), nil
}

func (r *ProductRepository) ListBySupplier(ctx context.Context, supplierID int64) ([]domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return p.SupplierID == supplierID }), nil
}

func (r *ProductRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	return r.filter(func(domain.Product) bool { return true }), nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	r.mu.RLock()
	p, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return domain.Product{}, domain.NewNotFoundError("product", id)
	}
	return r.withSupplierName(p), nil
}

// SearchByName ищет по вхождению в название без учёта регистра.
func (r *ProductRepository) SearchByName(ctx context.Context, name string) ([]domain.Product, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	return r.filter(func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}), nil
}

func (r *ProductRepository) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := r.validate(ctx, p); err != nil {
		return domain.Product{}, err
	}

	r.mu.Lock()
	r.nextID++
	now := time.Now().UTC()
	p.ID = r.nextID
	p.RegisteredAt = now
	p.UpdatedAt = now
	r.items[p.ID] = p
	r.mu.Unlock()

	return r.withSupplierName(p), nil
}

func (r *ProductRepository) Update(ctx context.Context, id int64, p domain.Product) (domain.Product, error) {
	if err := r.validate(ctx, p); err != nil {
		return domain.Product{}, err
	}

	r.mu.Lock()
	current, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return domain.Product{}, domain.NewNotFoundError("product", id)
	}
	p.ID = id
	p.RegisteredAt = current.RegisteredAt
	p.UpdatedAt = time.Now().UTC()
	r.items[id] = p
	r.mu.Unlock()

	return r.withSupplierName(p), nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.NewNotFoundError("product", id)
	}
	delete(r.items, id)
	return nil
}

func (r *ProductRepository) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return domain.NewNotFoundError("product", id)
	}
	p.Active = active
	p.UpdatedAt = time.Now().UTC()
	r.items[id] = p
	return nil
}

func (r *ProductRepository) validate(ctx context.Context, p domain.Product) error {
	if err := domain.ValidateProduct(p); err != nil {
		return err
	}
	if r.suppliers == nil {
		return nil
	}
	_, err := r.suppliers.FindByID(ctx, p.SupplierID)
	return err
}

func (r *ProductRepository) withSupplierName(p domain.Product) domain.Product {
	if r.suppliers != nil {
		p.SupplierName = r.suppliers.name(p.SupplierID)
	}
	return p
}

func (r *ProductRepository) filter(keep func(domain.Product) bool) []domain.Product {
	r.mu.RLock()
	result := make([]domain.Product, 0, len(r.items))
	for _, p := range r.items {
		if keep(p) {
			result = append(result, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	for i := range result {
		result[i] = r.withSupplierName(result[i])
	}
	return result
}

var (
	_ domain.SupplierAdmin = (*SupplierRepository)(nil)
	_ domain.ProductAdmin  = (*ProductRepository)(nil)
)
