package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"acaipulse/pkg/contracts/domain"
)

// SalesHeader is the column header of the sales CSV in source order.
var SalesHeader = []string{
	"Loja", "Bairro", "Data", "Hora_Pedido", "Produto", "Categoria_Produto",
	"Canal_Venda", "Forma_Entrega", "Forma_Pagamento", "Tipo_Cliente",
	"Promocao_Ativa", "Clima", "Temperatura_Dia", "Quantidade_Vendida",
	"Total_Venda", "Lucro_Total", "Lucro_Final", "Margem_Percentual",
	"Tempo_Total_Servico", "Avaliacao_Venda",
}

// SaleOption mutates a fixture sale.
type SaleOption func(*domain.Sale)

// NewSale returns a fully populated sale; options override fields.
// Derived fields are recomputed after options run.
func NewSale(opts ...SaleOption) domain.Sale {
	s := domain.Sale{
		Store:          "Loja Centro",
		Neighborhood:   "Centro",
		Date:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), // Monday
		OrderTime:      domain.NewClockTime(12, 0, 0),
		Product:        "Açaí 500ml",
		Category:       "Copo",
		Channel:        "Balcão",
		Delivery:       "Retirada",
		Payment:        "Pix",
		CustomerType:   "Novo",
		Weather:        "Ensolarado",
		Temperature:    30,
		HasTemperature: true,
		Quantity:       1,
		SaleTotal:      10,
		GrossProfit:    5,
		FinalProfit:    4,
		MarginPct:      40,
		ServiceMinutes: 10,
		Rating:         5,
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.YearMonth = s.Date.Format("2006-01")
	s.Weekday = domain.WeekdayName(s.Date.Weekday())
	s.MonthName = domain.MonthName(s.Date.Month())
	s.Hour = s.OrderTime.Hour()
	return s
}

// WithStore sets the store.
func WithStore(store string) SaleOption {
	return func(s *domain.Sale) { s.Store = store }
}

// WithNeighborhood sets the neighborhood.
func WithNeighborhood(n string) SaleOption {
	return func(s *domain.Sale) { s.Neighborhood = n }
}

// WithDate sets the sale date from a YYYY-MM-DD string.
func WithDate(date string) SaleOption {
	return func(s *domain.Sale) {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(err)
		}
		s.Date = d
	}
}

// WithTime sets the order time from HH:MM.
func WithTime(clock string) SaleOption {
	return func(s *domain.Sale) {
		c, err := domain.ParseClock(clock)
		if err != nil {
			panic(err)
		}
		s.OrderTime = c
	}
}

// WithProduct sets product and category.
func WithProduct(product, category string) SaleOption {
	return func(s *domain.Sale) {
		s.Product = product
		s.Category = category
	}
}

// WithChannel sets sales channel and delivery mode.
func WithChannel(channel, delivery string) SaleOption {
	return func(s *domain.Sale) {
		s.Channel = channel
		s.Delivery = delivery
	}
}

// WithPayment sets the payment method.
func WithPayment(p string) SaleOption {
	return func(s *domain.Sale) { s.Payment = p }
}

// WithCustomerType sets the customer type.
func WithCustomerType(c string) SaleOption {
	return func(s *domain.Sale) { s.CustomerType = c }
}

// WithWeather sets the weather and temperature.
func WithWeather(weather string, temperature float64) SaleOption {
	return func(s *domain.Sale) {
		s.Weather = weather
		s.Temperature = temperature
		s.HasTemperature = true
	}
}

// WithPromotion sets the promotion flag.
func WithPromotion(on bool) SaleOption {
	return func(s *domain.Sale) { s.Promotion = on }
}

// WithAmounts sets sale total and final profit.
func WithAmounts(total, profit float64) SaleOption {
	return func(s *domain.Sale) {
		s.SaleTotal = total
		s.FinalProfit = profit
	}
}

// WithRating sets the rating; 0 means unrated.
func WithRating(r float64) SaleOption {
	return func(s *domain.Sale) { s.Rating = r }
}

// WithMetrics sets margin and service time.
func WithMetrics(margin, serviceMinutes float64) SaleOption {
	return func(s *domain.Sale) {
		s.MarginPct = margin
		s.ServiceMinutes = serviceMinutes
	}
}

// CSVRow builds a raw CSV record keyed by column name; missing columns are
// filled with plausible defaults.
func CSVRow(values map[string]string) []string {
	defaults := map[string]string{
		"Loja":                "Loja Centro",
		"Bairro":              "Centro",
		"Data":                "2024-01-01",
		"Hora_Pedido":         "12:00:00",
		"Produto":             "Açaí 500ml",
		"Categoria_Produto":   "Copo",
		"Canal_Venda":         "Balcão",
		"Forma_Entrega":       "Retirada",
		"Forma_Pagamento":     "Pix",
		"Tipo_Cliente":        "Novo",
		"Promocao_Ativa":      "False",
		"Clima":               "Ensolarado",
		"Temperatura_Dia":     "30,0",
		"Quantidade_Vendida":  "1",
		"Total_Venda":         "10,00",
		"Lucro_Total":         "5,00",
		"Lucro_Final":         "4,00",
		"Margem_Percentual":   "40,0",
		"Tempo_Total_Servico": "10,0",
		"Avaliacao_Venda":     "5",
	}
	row := make([]string, len(SalesHeader))
	for i, col := range SalesHeader {
		if v, ok := values[col]; ok {
			row[i] = v
		} else {
			row[i] = defaults[col]
		}
	}
	return row
}

// WriteSalesCSV writes a comma separated sales file with quoted decimal
// comma values and returns its path.
func WriteSalesCSV(t *testing.T, dir string, rows ...[]string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(strings.Join(SalesHeader, ","))
	b.WriteString("\n")
	for _, row := range rows {
		quoted := make([]string, len(row))
		for i, v := range row {
			quoted[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
		}
		b.WriteString(strings.Join(quoted, ","))
		b.WriteString("\n")
	}

	path := filepath.Join(dir, "vendas.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
