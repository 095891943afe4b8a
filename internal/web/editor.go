package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/editor"
)

type editorView struct {
	Title     string
	Order     *domain.Order
	Items     []domain.LineItem
	Suppliers []domain.Supplier
	Products  []domain.Product
	Candidate editor.Candidate
}

func (s *Server) newOrder(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	if err := ws.Editor.PrepareNew(r.Context()); err != nil {
		ws.fail(err)
	}
	redirect(w, r, "/orders/editor")
}

// editOrder открывает сохранённый заказ; строка списка служит запасным вариантом.
func (s *Server) editOrder(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	id, err := pathID(r, "id")
	if err != nil {
		ws.fail(err)
		redirect(w, r, "/orders")
		return
	}
	fallback, _ := ws.Orders.Find(id)
	if err := ws.Editor.PrepareEdit(r.Context(), id, fallback); err != nil {
		ws.fail(err)
		if ws.Editor.Order() == nil || ws.Editor.Order().ID != id {
			redirect(w, r, "/orders")
			return
		}
	}
	redirect(w, r, "/orders/editor")
}

func (s *Server) editorPage(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	order := ws.Editor.Order()
	if order == nil {
		redirect(w, r, "/orders/new")
		return
	}

	view := editorView{
		Title:     ws.Editor.Title(),
		Order:     order,
		Items:     order.Items(),
		Suppliers: ws.Editor.Suppliers(),
		Products:  ws.Editor.Products(),
		Candidate: ws.Editor.Candidate(),
	}
	s.renderWorkspace(w, r, ws, "editor.html", view.Title, view)
}

func (s *Server) selectSupplier(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	supplierID, err := formID(r, "supplier_id")
	if err == nil {
		err = ws.Editor.SelectSupplier(r.Context(), supplierID)
	}
	if err != nil {
		ws.fail(err)
	}
	redirect(w, r, "/orders/editor")
}

// editItems обрабатывает форму новой позиции: action=select только выбирает товар
// и подставляет цену, action=add добавляет позицию.
func (s *Server) editItems(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	if err := applyCandidate(ws.Editor, r); err != nil {
		ws.fail(err)
		redirect(w, r, "/orders/editor")
		return
	}

	if r.PostFormValue("action") == "add" {
		item, err := ws.Editor.AddCandidate()
		if err != nil {
			ws.fail(err)
		} else {
			ws.info("Added " + item.Product().Name)
		}
	}
	redirect(w, r, "/orders/editor")
}

// applyCandidate переносит поля формы в кандидата. Пустая цена означает цену каталога.
func applyCandidate(ed *editor.Editor, r *http.Request) error {
	productID, err := formID(r, "product_id")
	if err != nil {
		return err
	}

	quantity := 0
	if raw := strings.TrimSpace(r.PostFormValue("quantity")); raw != "" {
		quantity, err = strconv.Atoi(raw)
		if err != nil {
			return domain.ErrQuantityInvalid
		}
	}
	ed.SetCandidateQuantity(quantity)

	price := decimal.Zero
	if raw := strings.TrimSpace(r.PostFormValue("unit_price")); raw != "" {
		price, err = decimal.NewFromString(raw)
		if err != nil {
			return domain.ErrUnitPriceInvalid
		}
	}
	ed.SetCandidatePrice(price)

	return ed.SelectCandidateProduct(productID)
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	if err := ws.Editor.RemoveLineItem(chi.URLParam(r, "key")); err != nil {
		ws.fail(err)
	}
	redirect(w, r, "/orders/editor")
}

// submitOrder сохраняет шапку из формы и отправляет заказ на бэкенд.
// При ошибке пользователь остаётся в редакторе с нетронутым черновиком.
func (s *Server) submitOrder(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	orderDate, err := parseInputDate("order_date", r.PostFormValue("order_date"))
	if err != nil {
		ws.fail(err)
		redirect(w, r, "/orders/editor")
		return
	}
	deliveryDate, err := parseInputDate("delivery_date", r.PostFormValue("delivery_date"))
	if err != nil {
		ws.fail(err)
		redirect(w, r, "/orders/editor")
		return
	}
	if err := ws.Editor.SetHeader(orderDate, deliveryDate, strings.TrimSpace(r.PostFormValue("notes"))); err != nil {
		ws.fail(err)
		redirect(w, r, "/orders/editor")
		return
	}

	saved, err := ws.Editor.Submit(r.Context())
	if err != nil {
		ws.fail(err)
		redirect(w, r, "/orders/editor")
		return
	}

	ws.info("Order " + saved.OrderNumber + " saved")
	redirect(w, r, "/orders")
}

// formID разбирает необязательный идентификатор из формы; пустое значение даёт 0.
func formID(r *http.Request, field string) (int64, error) {
	raw := strings.TrimSpace(r.PostFormValue(field))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, &domain.ValidationError{Field: field, Message: "invalid identifier " + strconv.Quote(raw)}
	}
	return id, nil
}
