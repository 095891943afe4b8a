package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/editor"
)

type orderRow struct {
	*domain.Order
	Timeline []domain.TimelineEvent
}

type ordersView struct {
	Rows   []orderRow
	Filter editor.Filter
	// Expanded заказ, журнал которого раскрыт.
	Expanded int64
}

func (s *Server) ordersPage(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	if err := ws.Orders.Load(r.Context()); err != nil {
		ws.fail(err)
	}

	view := ordersView{Filter: ws.Orders.Filter()}
	if raw := r.URL.Query().Get("timeline"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			view.Expanded = id
		}
	}
	for _, order := range ws.Orders.Rows() {
		row := orderRow{Order: order}
		if order.ID == view.Expanded {
			events, err := ws.Orders.Timeline(r.Context(), order.ID)
			if err != nil {
				ws.fail(err)
			}
			row.Timeline = events
		}
		view.Rows = append(view.Rows, row)
	}

	s.renderWorkspace(w, r, ws, "orders.html", "Purchase orders", view)
}

func (s *Server) searchOrders(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	filter, err := parseFilter(r)
	if err == nil {
		err = ws.Orders.Search(r.Context(), filter)
	}
	if err != nil {
		ws.fail(err)
	}
	redirect(w, r, "/orders")
}

func (s *Server) clearOrderFilters(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	if err := ws.Orders.ClearFilters(r.Context()); err != nil {
		ws.fail(err)
	}
	redirect(w, r, "/orders")
}

func (s *Server) changeOrderStatus(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	id, err := pathID(r, "id")
	if err != nil {
		ws.fail(err)
		redirect(w, r, "/orders")
		return
	}
	status, err := domain.ParseOrderStatus(r.PostFormValue("status"))
	if err == nil {
		err = ws.Orders.ChangeStatus(r.Context(), id, status)
	}
	if err != nil {
		ws.fail(err)
	} else {
		ws.info("Order status changed to " + status.Label())
	}
	redirect(w, r, "/orders")
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	id, err := pathID(r, "id")
	if err == nil {
		err = ws.Orders.Delete(r.Context(), id)
	}
	if err != nil {
		ws.fail(err)
	} else {
		ws.info("Order deleted")
	}
	redirect(w, r, "/orders")
}

// parseFilter разбирает форму поиска; пустые поля не участвуют в фильтре.
func parseFilter(r *http.Request) (editor.Filter, error) {
	var filter editor.Filter
	if raw := strings.TrimSpace(r.PostFormValue("status")); raw != "" {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			return editor.Filter{}, err
		}
		filter.Status = status
	}

	var err error
	if filter.Start, err = parseInputDate("start", r.PostFormValue("start")); err != nil {
		return editor.Filter{}, err
	}
	if filter.End, err = parseInputDate("end", r.PostFormValue("end")); err != nil {
		return editor.Filter{}, err
	}
	return filter, nil
}

func parseInputDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(inputDateLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: field, Message: "invalid date " + strconv.Quote(raw)}
	}
	return t, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: name, Message: "invalid identifier " + strconv.Quote(raw)}
	}
	return id, nil
}
