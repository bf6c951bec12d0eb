package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"acaipulse/internal/format"
	"acaipulse/pkg/contracts/domain"
)

// grouped accumulates exact decimal totals per key, remembering the order
// in which keys first appeared.
type grouped struct {
	totals map[string]decimal.Decimal
	order  []string
}

func newGrouped() *grouped {
	return &grouped{totals: make(map[string]decimal.Decimal)}
}

func (g *grouped) add(key string, v float64) {
	cur, ok := g.totals[key]
	if !ok {
		g.order = append(g.order, key)
	}
	g.totals[key] = cur.Add(format.Decimal(v))
}

// byKey returns totals sorted by key ascending.
func (g *grouped) byKey() []domain.KeyValue {
	keys := append([]string(nil), g.order...)
	sort.Strings(keys)
	return g.values(keys)
}

// byValueDesc returns totals sorted by value descending. Ties keep first
// appearance order.
func (g *grouped) byValueDesc() []domain.KeyValue {
	out := g.values(g.order)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

func (g *grouped) values(keys []string) []domain.KeyValue {
	out := make([]domain.KeyValue, 0, len(keys))
	for _, k := range keys {
		v, _ := g.totals[k].Float64()
		out = append(out, domain.KeyValue{Key: k, Value: v})
	}
	return out
}

func sumOf(rows []domain.Sale, field func(domain.Sale) float64) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(format.Decimal(field(r)))
	}
	return total
}

func meanOf(rows []domain.Sale, field func(domain.Sale) float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	var total float64
	for _, r := range rows {
		total += field(r)
	}
	return total / float64(len(rows))
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
