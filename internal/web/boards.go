package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

type supplierView struct {
	Query string
	Rows  []domain.Supplier
	Form  domain.Supplier
}

type productView struct {
	Query     string
	Rows      []domain.Product
	Form      domain.Product
	Suppliers []domain.Supplier
}

func (s *Server) suppliersPage(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if err := ws.Suppliers.Search(r.Context(), query); err != nil {
		ws.fail(err)
	}

	view := supplierView{Query: query, Rows: ws.Suppliers.Rows(), Form: domain.Supplier{Active: true}}
	if id, ok := queryID(r, "edit"); ok {
		if supplier, found := ws.Suppliers.Find(id); found {
			view.Form = supplier
		}
	}
	s.renderWorkspace(w, r, ws, "suppliers.html", "Suppliers", view)
}

func (s *Server) saveSupplier(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	id, err := formID(r, "id")
	if err != nil {
		ws.fail(err)
		redirect(w, r, "/suppliers")
		return
	}
	supplier := domain.Supplier{
		ID:           id,
		TaxID:        r.PostFormValue("tax_id"),
		LegalName:    strings.TrimSpace(r.PostFormValue("legal_name")),
		TradeName:    strings.TrimSpace(r.PostFormValue("trade_name")),
		Address:      strings.TrimSpace(r.PostFormValue("address")),
		Phone:        strings.TrimSpace(r.PostFormValue("phone")),
		Email:        strings.TrimSpace(r.PostFormValue("email")),
		Contact:      strings.TrimSpace(r.PostFormValue("contact")),
		ContactPhone: strings.TrimSpace(r.PostFormValue("contact_phone")),
		Active:       r.PostFormValue("active") != "",
	}

	saved, err := ws.Suppliers.Save(r.Context(), supplier)
	if err != nil {
		ws.fail(err)
		redirect(w, r, editPath("/suppliers", id))
		return
	}
	ws.info("Supplier " + saved.LegalName + " saved")
	redirect(w, r, "/suppliers")
}

func (s *Server) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	id, err := pathID(r, "id")
	if err == nil {
		err = ws.Suppliers.Delete(r.Context(), id)
	}
	if err != nil {
		ws.fail(err)
	} else {
		ws.info("Supplier deleted")
	}
	redirect(w, r, "/suppliers")
}

func (s *Server) toggleSupplier(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	id, err := pathID(r, "id")
	if err == nil {
		if _, ok := ws.Suppliers.Find(id); !ok {
			err = ws.Suppliers.Load(r.Context())
		}
	}
	if err == nil {
		err = ws.Suppliers.ToggleActive(r.Context(), id)
	}
	if err != nil {
		ws.fail(err)
	}
	redirect(w, r, "/suppliers")
}

func (s *Server) productsPage(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if err := ws.Products.Search(r.Context(), query); err != nil {
		ws.fail(err)
	}
	suppliers, err := ws.Products.SupplierOptions(r.Context())
	if err != nil {
		ws.fail(err)
	}

	view := productView{
		Query:     query,
		Rows:      ws.Products.Rows(),
		Form:      domain.Product{Active: true},
		Suppliers: suppliers,
	}
	if id, ok := queryID(r, "edit"); ok {
		if product, found := ws.Products.Find(id); found {
			view.Form = product
		}
	}
	s.renderWorkspace(w, r, ws, "products.html", "Products", view)
}

func (s *Server) saveProduct(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	product, err := productFromForm(r)
	if err != nil {
		ws.fail(err)
		redirect(w, r, editPath("/products", product.ID))
		return
	}

	saved, err := ws.Products.Save(r.Context(), product)
	if err != nil {
		ws.fail(err)
		redirect(w, r, editPath("/products", product.ID))
		return
	}
	ws.info("Product " + saved.DisplayName() + " saved")
	redirect(w, r, "/products")
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	id, err := pathID(r, "id")
	if err == nil {
		err = ws.Products.Delete(r.Context(), id)
	}
	if err != nil {
		ws.fail(err)
	} else {
		ws.info("Product deleted")
	}
	redirect(w, r, "/products")
}

func (s *Server) toggleProduct(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	id, err := pathID(r, "id")
	if err == nil {
		if _, ok := ws.Products.Find(id); !ok {
			err = ws.Products.Load(r.Context())
		}
	}
	if err == nil {
		err = ws.Products.ToggleActive(r.Context(), id)
	}
	if err != nil {
		ws.fail(err)
	}
	redirect(w, r, "/products")
}

func productFromForm(r *http.Request) (domain.Product, error) {
	var (
		product domain.Product
		err     error
	)
	if product.ID, err = formID(r, "id"); err != nil {
		return domain.Product{}, err
	}
	if product.SupplierID, err = formID(r, "supplier_id"); err != nil {
		return product, err
	}
	product.Code = strings.TrimSpace(r.PostFormValue("code"))
	product.Name = strings.TrimSpace(r.PostFormValue("name"))
	product.Description = strings.TrimSpace(r.PostFormValue("description"))
	product.Unit = strings.TrimSpace(r.PostFormValue("unit"))
	product.Active = r.PostFormValue("active") != ""

	if raw := strings.TrimSpace(r.PostFormValue("price")); raw != "" {
		if product.Price, err = decimal.NewFromString(raw); err != nil {
			return product, &domain.ValidationError{Field: "price", Message: "price must be a number"}
		}
	}
	if product.MinStock, err = formInt(r, "min_stock"); err != nil {
		return product, err
	}
	if product.CurrentStock, err = formInt(r, "current_stock"); err != nil {
		return product, err
	}
	return product, nil
}

func formInt(r *http.Request, field string) (int, error) {
	raw := strings.TrimSpace(r.PostFormValue(field))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, &domain.ValidationError{Field: field, Message: field + " must be a non-negative integer"}
	}
	return value, nil
}

func queryID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return id, err == nil && id > 0
}

func editPath(base string, id int64) string {
	if id == 0 {
		return base
	}
	return base + "?edit=" + strconv.FormatInt(id, 10)
}
