package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

const (
	suppliersPath = "/proveedores"
	productsPath  = "/productos"
)

// SupplierClient реализует domain.SupplierAdmin.
type SupplierClient struct {
	c *Client
}

func (s *SupplierClient) ListActive(ctx context.Context) ([]domain.Supplier, error) {
	return s.list(ctx, "list active suppliers", suppliersPath+"/activos", nil)
}

func (s *SupplierClient) ListAll(ctx context.Context) ([]domain.Supplier, error) {
	return s.list(ctx, "list suppliers", suppliersPath, nil)
}

func (s *SupplierClient) SearchByName(ctx context.Context, name string) ([]domain.Supplier, error) {
	return s.list(ctx, "search suppliers", suppliersPath+"/buscar", url.Values{"razonSocial": {name}})
}

func (s *SupplierClient) FindByID(ctx context.Context, id int64) (domain.Supplier, error) {
	dto, err := call[supplierDTO](ctx, s.c, "find supplier", http.MethodGet, idPath(suppliersPath, id), nil, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Supplier{}, domain.NewNotFoundError("supplier", id)
		}
		return domain.Supplier{}, err
	}
	return dto.toDomain(), nil
}

func (s *SupplierClient) Create(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	dto, err := call[supplierDTO](ctx, s.c, "create supplier", http.MethodPost, suppliersPath, nil, supplierToDTO(supplier))
	if err != nil {
		return domain.Supplier{}, err
	}
	return dto.toDomain(), nil
}

func (s *SupplierClient) Update(ctx context.Context, id int64, supplier domain.Supplier) (domain.Supplier, error) {
	dto, err := call[supplierDTO](ctx, s.c, "update supplier", http.MethodPut, idPath(suppliersPath, id), nil, supplierToDTO(supplier))
	if err != nil {
		return domain.Supplier{}, err
	}
	return dto.toDomain(), nil
}

func (s *SupplierClient) Delete(ctx context.Context, id int64) error {
	_, err := call[json.RawMessage](ctx, s.c, "delete supplier", http.MethodDelete, idPath(suppliersPath, id), nil, nil)
	return err
}

func (s *SupplierClient) SetActive(ctx context.Context, id int64, active bool) error {
	query := url.Values{"activo": {strconv.FormatBool(active)}}
	_, err := call[json.RawMessage](ctx, s.c, "change supplier state", http.MethodPatch, idPath(suppliersPath, id)+"/estado", query, nil)
	return err
}

func (s *SupplierClient) list(ctx context.Context, op, path string, query url.Values) ([]domain.Supplier, error) {
	dtos, err := call[[]supplierDTO](ctx, s.c, op, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Supplier, 0, len(dtos))
	for _, dto := range dtos {
		result = append(result, dto.toDomain())
	}
	return result, nil
}

// ProductClient реализует domain.ProductAdmin.
type ProductClient struct {
	c *Client
}

func (p *ProductClient) ListActive(ctx context.Context) ([]domain.Product, error) {
	return p.list(ctx, "list active products", productsPath+"/activos", nil)
}

func (p *ProductClient) ListBySupplier(ctx context.Context, supplierID int64) ([]domain.Product, error) {
	return p.list(ctx, "list supplier products", productsPath+"/proveedor/"+strconv.FormatInt(supplierID, 10), nil)
}

func (p *ProductClient) ListAll(ctx context.Context) ([]domain.Product, error) {
	return p.list(ctx, "list products", productsPath, nil)
}

func (p *ProductClient) SearchByName(ctx context.Context, name string) ([]domain.Product, error) {
	return p.list(ctx, "search products", productsPath+"/nombre", url.Values{"nombre": {name}})
}

func (p *ProductClient) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	dto, err := call[productDTO](ctx, p.c, "find product", http.MethodGet, idPath(productsPath, id), nil, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Product{}, domain.NewNotFoundError("product", id)
		}
		return domain.Product{}, err
	}
	return dto.toDomain(), nil
}

func (p *ProductClient) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	dto, err := call[productDTO](ctx, p.c, "create product", http.MethodPost, productsPath, nil, productToDTO(product))
	if err != nil {
		return domain.Product{}, err
	}
	return dto.toDomain(), nil
}

func (p *ProductClient) Update(ctx context.Context, id int64, product domain.Product) (domain.Product, error) {
	dto, err := call[productDTO](ctx, p.c, "update product", http.MethodPut, idPath(productsPath, id), nil, productToDTO(product))
	if err != nil {
		return domain.Product{}, err
	}
	return dto.toDomain(), nil
}

func (p *ProductClient) Delete(ctx context.Context, id int64) error {
	_, err := call[json.RawMessage](ctx, p.c, "delete product", http.MethodDelete, idPath(productsPath, id), nil, nil)
	return err
}

func (p *ProductClient) SetActive(ctx context.Context, id int64, active bool) error {
	query := url.Values{"activo": {strconv.FormatBool(active)}}
	_, err := call[json.RawMessage](ctx, p.c, "change product state", http.MethodPatch, idPath(productsPath, id)+"/estado", query, nil)
	return err
}

func (p *ProductClient) list(ctx context.Context, op, path string, query url.Values) ([]domain.Product, error) {
	dtos, err := call[[]productDTO](ctx, p.c, op, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Product, 0, len(dtos))
	for _, dto := range dtos {
		result = append(result, dto.toDomain())
	}
	return result, nil
}

func idPath(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10)
}

var (
	_ domain.SupplierAdmin = (*SupplierClient)(nil)
	_ domain.ProductAdmin  = (*ProductClient)(nil)
)
