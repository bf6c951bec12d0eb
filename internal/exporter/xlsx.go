package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"acaipulse/internal/format"
	"acaipulse/pkg/contracts/domain"
)

// Workbook sheet names.
const (
	SheetSales      = "Vendas"
	SheetSummary    = "Resumo"
	SheetProducts   = "Produtos"
	SheetCategories = "Categorias"
	SheetWeekdays   = "Dias da Semana"
	SheetHours      = "Horas"
	SheetChannels   = "Canais"
)

// XLSXWriter renders sales and dashboard summaries as a workbook.
type XLSXWriter struct {
	locale format.Locale
	logger *slog.Logger
}

// NewXLSXWriter creates a workbook writer.
func NewXLSXWriter(loc format.Locale, logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{locale: loc, logger: logger}
}

// WriteWorkbook writes the sales sheet and, when dash is non-nil, one
// summary sheet per view.
func (x *XLSXWriter) WriteWorkbook(out io.Writer, sales []domain.Sale, dash *domain.Dashboard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSales); err != nil {
		return fmt.Errorf("failed to name sales sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := x.writeSales(f, headerStyle, sales); err != nil {
		return err
	}

	if dash != nil {
		if err := x.writeSummary(f, headerStyle, dash); err != nil {
			return err
		}
		if err := x.writeViews(f, headerStyle, dash.Views); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	x.logger.Debug("workbook written", slog.Int("rows", len(sales)), slog.Bool("summary", dash != nil))
	return nil
}

func (x *XLSXWriter) writeSales(f *excelize.File, headerStyle int, sales []domain.Sale) error {
	sw, err := f.NewStreamWriter(SheetSales)
	if err != nil {
		return fmt.Errorf("failed to open sales stream: %w", err)
	}

	if err := sw.SetRow("A1", headerCells(SaleHeaders(), headerStyle)); err != nil {
		return fmt.Errorf("failed to write sales header: %w", err)
	}

	for i, s := range sales {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, saleCells(s)); err != nil {
			return fmt.Errorf("failed to write sale row %d: %w", i+1, err)
		}
	}

	return sw.Flush()
}

func (x *XLSXWriter) writeSummary(f *excelize.File, headerStyle int, dash *domain.Dashboard) error {
	h := dash.Headline
	rows := [][]interface{}{
		{"Vendas exibidas", float64(dash.RowCount), fmt.Sprintf("%d", dash.RowCount)},
		{"Total de vendas", h.TotalSales, format.Currency(h.TotalSales, x.locale)},
		{"Lucro total", h.TotalProfit, format.Currency(h.TotalProfit, x.locale)},
		{"Ticket médio", h.AverageTicket, format.Currency(h.AverageTicket, x.locale)},
		{"Margem média", h.AverageMargin, format.Percent(h.AverageMargin, x.locale)},
		{"Tempo médio de serviço", h.AverageServiceMinutes, format.Minutes(h.AverageServiceMinutes, x.locale)},
		{"Avaliação média", h.AverageRating, format.Rating(h.AverageRating, x.locale)},
	}
	return x.writeTable(f, headerStyle, SheetSummary, []string{"Indicador", "Valor", "Exibição"}, rows)
}

func (x *XLSXWriter) writeViews(f *excelize.File, headerStyle int, v domain.Views) error {
	tables := []struct {
		sheet   string
		headers []string
		rows    [][]interface{}
	}{
		{SheetProducts, []string{"Produto", "Quantidade"}, keyValueRows(v.TopProducts)},
		{SheetCategories, []string{"Categoria", "Lucro"}, keyValueRows(v.ProfitByCategory)},
		{SheetWeekdays, []string{"Dia", "Vendas"}, weekdayRows(v.Weekday)},
		{SheetHours, []string{"Hora", "Vendas"}, hourRows(v.Hourly)},
		{SheetChannels, []string{"Canal / Entrega", "Vendas"}, append(
			keyValueRows(v.ChannelDelivery.Channel),
			keyValueRows(v.ChannelDelivery.Delivery)...,
		)},
	}
	for _, t := range tables {
		if err := x.writeTable(f, headerStyle, t.sheet, t.headers, t.rows); err != nil {
			return err
		}
	}
	return nil
}

func (x *XLSXWriter) writeTable(f *excelize.File, headerStyle int, sheet string, headers []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream for %q: %w", sheet, err)
	}
	if err := sw.SetRow("A1", headerCells(headers, headerStyle)); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write %q row %d: %w", sheet, i+1, err)
		}
	}
	return sw.Flush()
}

func headerCells(headers []string, style int) []interface{} {
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = excelize.Cell{StyleID: style, Value: h}
	}
	return cells
}

// saleCells keeps numbers numeric; dates and times stay text so a reload
// reads them exactly as written.
func saleCells(s domain.Sale) []interface{} {
	var temperature interface{}
	if s.HasTemperature {
		temperature = s.Temperature
	}
	return []interface{}{
		s.Store,
		s.Neighborhood,
		s.Date.Format("2006-01-02"),
		s.OrderTime.String(),
		s.Product,
		s.Category,
		s.Channel,
		s.Delivery,
		s.Payment,
		s.CustomerType,
		formatBool(s.Promotion),
		s.Weather,
		temperature,
		s.Quantity,
		s.SaleTotal,
		s.GrossProfit,
		s.FinalProfit,
		s.MarginPct,
		s.ServiceMinutes,
		s.Rating,
		s.YearMonth,
		s.Weekday,
		s.MonthName,
		s.Hour,
	}
}

func keyValueRows(items []domain.KeyValue) [][]interface{} {
	rows := make([][]interface{}, len(items))
	for i, kv := range items {
		rows[i] = []interface{}{kv.Key, kv.Value}
	}
	return rows
}

func weekdayRows(items []domain.WeekdayValue) [][]interface{} {
	rows := make([][]interface{}, len(items))
	for i, w := range items {
		rows[i] = []interface{}{w.Weekday, w.Value}
	}
	return rows
}

func hourRows(items []domain.HourValue) [][]interface{} {
	rows := make([][]interface{}, len(items))
	for i, h := range items {
		rows[i] = []interface{}{h.Hour, h.Value}
	}
	return rows
}
