package web

import (
	"fmt"
	"io"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/editor"
)

const (
	exportSheet       = "Orders"
	exportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeaders = []string{"Number", "Order date", "Delivery date", "Supplier", "Status", "Items", "Subtotal", "Tax", "Total"}

// exportOrders выгружает текущую выборку списка заказов в XLSX.
func (s *Server) exportOrders(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	defer ws.mu.Unlock()

	if err := ws.Orders.Load(r.Context()); err != nil {
		ws.fail(err)
		redirect(w, r, "/orders")
		return
	}

	w.Header().Set("Content-Type", exportContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=orders.xlsx")
	if err := writeOrdersXLSX(w, ws.Orders.Rows()); err != nil {
		s.logger.WithError(err).Error("failed to export orders")
		return
	}
	s.metrics.RecordExport()
}

func writeOrdersXLSX(out io.Writer, orders []*domain.Order) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	moneyFormat := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFormat})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for idx, order := range orders {
		row := idx + 2
		values := []any{
			order.OrderNumber,
			editor.FormatDate(order.OrderDate),
			editor.FormatDate(order.DeliveryDate),
			order.SupplierName,
			order.Status.Label(),
			order.ItemCount(),
			order.Subtotal().InexactFloat64(),
			order.Tax().InexactFloat64(),
			order.Total().InexactFloat64(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("write order %s: %w", order.OrderNumber, err)
		}
	}
	if len(orders) > 0 {
		first, _ := excelize.CoordinatesToCellName(7, 2)
		last, _ := excelize.CoordinatesToCellName(9, len(orders)+1)
		if err := f.SetCellStyle(exportSheet, first, last, moneyStyle); err != nil {
			return fmt.Errorf("style totals: %w", err)
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "I", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	return f.Write(out)
}
