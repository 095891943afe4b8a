package backend

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

var jsonNull = []byte("null")

// localDate — дата без времени в формате бэкенда (YYYY-MM-DD).
type localDate time.Time

func (d localDate) MarshalJSON() ([]byte, error) {
	t := time.Time(d)
	if t.IsZero() {
		return jsonNull, nil
	}
	return []byte(`"` + t.Format(dateLayout) + `"`), nil
}

func (d *localDate) UnmarshalJSON(raw []byte) error {
	if bytes.Equal(raw, jsonNull) {
		*d = localDate{}
		return nil
	}
	t, err := time.ParseInLocation(`"`+dateLayout+`"`, string(raw), time.Local)
	if err != nil {
		return fmt.Errorf("parse date %s: %w", raw, err)
	}
	*d = localDate(t)
	return nil
}

// localDateTime отметка времени бэкенда без зоны, с необязательными долями секунды.
type localDateTime time.Time

func (d localDateTime) MarshalJSON() ([]byte, error) {
	t := time.Time(d)
	if t.IsZero() {
		return jsonNull, nil
	}
	return []byte(`"` + t.Format(dateTimeLayout) + `"`), nil
}

func (d *localDateTime) UnmarshalJSON(raw []byte) error {
	if bytes.Equal(raw, jsonNull) {
		*d = localDateTime{}
		return nil
	}
	// Дробная часть секунд при разборе допускается и без указания в формате.
	t, err := time.ParseInLocation(`"`+dateTimeLayout+`"`, string(raw), time.Local)
	if err != nil {
		return fmt.Errorf("parse timestamp %s: %w", raw, err)
	}
	*d = localDateTime(t)
	return nil
}

// amount сериализует decimal числом JSON, как ждёт BigDecimal бэкенда.
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

func (a *amount) UnmarshalJSON(raw []byte) error {
	if bytes.Equal(raw, jsonNull) {
		*a = amount(decimal.Zero)
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return err
	}
	*a = amount(d)
	return nil
}

func (a amount) decimal() decimal.Decimal { return decimal.Decimal(a) }

// Статусы заказа на стороне бэкенда.
var (
	statusToWire = map[domain.OrderStatus]string{
		domain.OrderStatusPending:   "PENDIENTE",
		domain.OrderStatusApproved:  "APROBADA",
		domain.OrderStatusReceived:  "RECIBIDA",
		domain.OrderStatusCancelled: "CANCELADA",
	}
	statusFromWire = map[string]domain.OrderStatus{
		"PENDIENTE": domain.OrderStatusPending,
		"APROBADA":  domain.OrderStatusApproved,
		"RECIBIDA":  domain.OrderStatusReceived,
		"CANCELADA": domain.OrderStatusCancelled,
	}
)

func wireStatus(s domain.OrderStatus) (string, error) {
	w, ok := statusToWire[s]
	if !ok {
		return "", &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown order status %q", s)}
	}
	return w, nil
}

func parseWireStatus(w string) (domain.OrderStatus, error) {
	s, ok := statusFromWire[w]
	if !ok {
		return "", fmt.Errorf("unknown backend order status %q", w)
	}
	return s, nil
}

type supplierDTO struct {
	ID                 int64         `json:"id,omitempty"`
	RUC                string        `json:"ruc"`
	RazonSocial        string        `json:"razonSocial"`
	NombreComercial    string        `json:"nombreComercial,omitempty"`
	Direccion          string        `json:"direccion,omitempty"`
	Telefono           string        `json:"telefono,omitempty"`
	Email              string        `json:"email,omitempty"`
	Contacto           string        `json:"contacto,omitempty"`
	TelefonoContacto   string        `json:"telefonoContacto,omitempty"`
	Activo             *bool         `json:"activo,omitempty"`
	FechaRegistro      localDateTime `json:"fechaRegistro"`
	FechaActualizacion localDateTime `json:"fechaActualizacion"`
}

func supplierToDTO(s domain.Supplier) supplierDTO {
	active := s.Active
	return supplierDTO{
		ID:               s.ID,
		RUC:              s.TaxID,
		RazonSocial:      s.LegalName,
		NombreComercial:  s.TradeName,
		Direccion:        s.Address,
		Telefono:         s.Phone,
		Email:            s.Email,
		Contacto:         s.Contact,
		TelefonoContacto: s.ContactPhone,
		Activo:           &active,
	}
}

func (d supplierDTO) toDomain() domain.Supplier {
	return domain.Supplier{
		ID:           d.ID,
		TaxID:        d.RUC,
		LegalName:    d.RazonSocial,
		TradeName:    d.NombreComercial,
		Address:      d.Direccion,
		Phone:        d.Telefono,
		Email:        d.Email,
		Contact:      d.Contacto,
		ContactPhone: d.TelefonoContacto,
		Active:       d.Activo == nil || *d.Activo,
		RegisteredAt: time.Time(d.FechaRegistro),
		UpdatedAt:    time.Time(d.FechaActualizacion),
	}
}

type productDTO struct {
	ID                 int64         `json:"id,omitempty"`
	Codigo             string        `json:"codigo"`
	Nombre             string        `json:"nombre"`
	Descripcion        string        `json:"descripcion,omitempty"`
	UnidadMedida       string        `json:"unidadMedida"`
	PrecioUnitario     amount        `json:"precioUnitario"`
	StockMinimo        int           `json:"stockMinimo"`
	StockActual        int           `json:"stockActual"`
	Activo             *bool         `json:"activo,omitempty"`
	ProveedorID        int64         `json:"proveedorId"`
	ProveedorNombre    string        `json:"proveedorNombre,omitempty"`
	FechaRegistro      localDateTime `json:"fechaRegistro"`
	FechaActualizacion localDateTime `json:"fechaActualizacion"`
}

func productToDTO(p domain.Product) productDTO {
	active := p.Active
	return productDTO{
		ID:             p.ID,
		Codigo:         p.Code,
		Nombre:         p.Name,
		Descripcion:    p.Description,
		UnidadMedida:   p.Unit,
		PrecioUnitario: amount(p.Price),
		StockMinimo:    p.MinStock,
		StockActual:    p.CurrentStock,
		Activo:         &active,
		ProveedorID:    p.SupplierID,
	}
}

func (d productDTO) toDomain() domain.Product {
	return domain.Product{
		ID:           d.ID,
		Code:         d.Codigo,
		Name:         d.Nombre,
		Description:  d.Descripcion,
		Unit:         d.UnidadMedida,
		Price:        d.PrecioUnitario.decimal(),
		MinStock:     d.StockMinimo,
		CurrentStock: d.StockActual,
		Active:       d.Activo == nil || *d.Activo,
		SupplierID:   d.ProveedorID,
		SupplierName: d.ProveedorNombre,
		RegisteredAt: time.Time(d.FechaRegistro),
		UpdatedAt:    time.Time(d.FechaActualizacion),
	}
}

// productRefDTO — краткое описание товара внутри позиции заказа.
type productRefDTO struct {
	ID           int64  `json:"id"`
	Codigo       string `json:"codigo"`
	Nombre       string `json:"nombre"`
	UnidadMedida string `json:"unidadMedida"`
	Precio       amount `json:"precio"`
	Activo       *bool  `json:"activo,omitempty"`
}

type lineItemDTO struct {
	ID             int64          `json:"id,omitempty"`
	Cantidad       int            `json:"cantidad"`
	PrecioUnitario amount         `json:"precioUnitario"`
	Subtotal       amount         `json:"subtotal"`
	ProductoID     int64          `json:"productoId"`
	Producto       *productRefDTO `json:"producto,omitempty"`
	OrdenCompraID  int64          `json:"ordenCompraId,omitempty"`
}

type orderDTO struct {
	ID                   int64         `json:"id,omitempty"`
	NumeroOrden          string        `json:"numeroOrden,omitempty"`
	FechaOrden           localDate     `json:"fechaOrden"`
	FechaEntregaEstimada localDate     `json:"fechaEntregaEstimada"`
	ProveedorID          int64         `json:"proveedorId"`
	ProveedorNombre      string        `json:"proveedorNombre,omitempty"`
	ProveedorRUC         string        `json:"proveedorRuc,omitempty"`
	Estado               string        `json:"estado"`
	Subtotal             amount        `json:"subtotal"`
	Impuesto             amount        `json:"impuesto"`
	Descuento            amount        `json:"descuento"`
	Total                amount        `json:"total"`
	Observaciones        string        `json:"observaciones,omitempty"`
	UsuarioCreacion      string        `json:"usuarioCreacion,omitempty"`
	FechaCreacion        localDateTime `json:"fechaCreacion"`
	FechaActualizacion   localDateTime `json:"fechaActualizacion"`
	Detalles             []lineItemDTO `json:"detalles"`
}

func orderToDTO(o *domain.Order) (orderDTO, error) {
	status, err := wireStatus(o.Status)
	if err != nil {
		return orderDTO{}, err
	}

	items := o.Items()
	details := make([]lineItemDTO, 0, len(items))
	for _, item := range items {
		details = append(details, lineItemDTO{
			ID:             item.ID(),
			Cantidad:       item.Quantity(),
			PrecioUnitario: amount(item.UnitPrice()),
			Subtotal:       amount(item.Subtotal()),
			ProductoID:     item.ProductID(),
			OrdenCompraID:  o.ID,
		})
	}

	return orderDTO{
		ID:                   o.ID,
		NumeroOrden:          o.OrderNumber,
		FechaOrden:           localDate(o.OrderDate),
		FechaEntregaEstimada: localDate(o.DeliveryDate),
		ProveedorID:          o.SupplierID,
		Estado:               status,
		Subtotal:             amount(o.Subtotal()),
		Impuesto:             amount(o.Tax()),
		Descuento:            amount(decimal.Zero),
		Total:                amount(o.Total()),
		Observaciones:        o.Notes,
		UsuarioCreacion:      o.CreatedBy,
		Detalles:             details,
	}, nil
}

// toDomain восстанавливает агрегат; итоги пересчитываются по позициям.
func (d orderDTO) toDomain() (*domain.Order, error) {
	status, err := parseWireStatus(d.Estado)
	if err != nil {
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(d.Detalles))
	for _, det := range d.Detalles {
		snapshot := domain.ProductSnapshot{ID: det.ProductoID, Active: true}
		if det.Producto != nil {
			snapshot = domain.ProductSnapshot{
				ID:     det.ProductoID,
				Code:   det.Producto.Codigo,
				Name:   det.Producto.Nombre,
				Unit:   det.Producto.UnidadMedida,
				Price:  det.Producto.Precio.decimal(),
				Active: det.Producto.Activo == nil || *det.Producto.Activo,
			}
		}
		item, err := domain.RestoreLineItem(det.ID, snapshot, det.Cantidad, det.PrecioUnitario.decimal())
		if err != nil {
			return nil, fmt.Errorf("order %d line %d: %w", d.ID, det.ID, err)
		}
		items = append(items, item)
	}

	return domain.RestoreOrder(domain.Order{
		ID:           d.ID,
		OrderNumber:  d.NumeroOrden,
		OrderDate:    time.Time(d.FechaOrden),
		DeliveryDate: time.Time(d.FechaEntregaEstimada),
		SupplierID:   d.ProveedorID,
		SupplierName: d.ProveedorNombre,
		Status:       status,
		Notes:        d.Observaciones,
		CreatedBy:    d.UsuarioCreacion,
	}, items), nil
}

// ordersToDomain восстанавливает строки списка. Заказ, который не удалось восстановить,
// не роняет весь список: он пропускается и возвращается в skipped.
func ordersToDomain(dtos []orderDTO) (orders []*domain.Order, skipped []error) {
	orders = make([]*domain.Order, 0, len(dtos))
	for _, dto := range dtos {
		order, err := dto.toDomain()
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		orders = append(orders, order)
	}
	return orders, skipped
}
