package dataset

import "strings"

// Source column names.
const (
	ColStore          = "Loja"
	ColNeighborhood   = "Bairro"
	ColDate           = "Data"
	ColOrderTime      = "Hora_Pedido"
	ColProduct        = "Produto"
	ColCategory       = "Categoria_Produto"
	ColChannel        = "Canal_Venda"
	ColDelivery       = "Forma_Entrega"
	ColPayment        = "Forma_Pagamento"
	ColCustomerType   = "Tipo_Cliente"
	ColPromotion      = "Promocao_Ativa"
	ColWeather        = "Clima"
	ColTemperature    = "Temperatura_Dia"
	ColQuantity       = "Quantidade_Vendida"
	ColSaleTotal      = "Total_Venda"
	ColGrossProfit    = "Lucro_Total"
	ColFinalProfit    = "Lucro_Final"
	ColMargin         = "Margem_Percentual"
	ColServiceMinutes = "Tempo_Total_Servico"
	ColRating         = "Avaliacao_Venda"
)

// RequiredColumns must be present in the header.
var RequiredColumns = []string{ColDate, ColOrderTime, ColStore}

// MetricColumns are the numeric columns whose malformed cells become 0.
var MetricColumns = []string{
	ColQuantity,
	ColSaleTotal,
	ColGrossProfit,
	ColFinalProfit,
	ColMargin,
	ColServiceMinutes,
	ColRating,
}

// columnIndex maps normalised header names to their position.
type columnIndex map[string]int

func newColumnIndex(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		key := normaliseHeader(name)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func normaliseHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}

func (c columnIndex) has(col string) bool {
	_, ok := c[normaliseHeader(col)]
	return ok
}

// cell returns the trimmed value of col in record, or "" when the column
// is absent or the record is short.
func (c columnIndex) cell(record []string, col string) string {
	i, ok := c[normaliseHeader(col)]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
