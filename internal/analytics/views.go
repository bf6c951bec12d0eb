package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"acaipulse/internal/format"
	"acaipulse/pkg/contracts/domain"
)

// DefaultTopN is the number of products in the ranking view.
const DefaultTopN = 10

// TimeSeries returns daily sales and profit, oldest first.
func TimeSeries(rows []domain.Sale) []domain.DatePoint {
	type acc struct{ sales, profit decimal.Decimal }
	byDay := make(map[time.Time]*acc)
	for _, r := range rows {
		a, ok := byDay[r.Date]
		if !ok {
			a = &acc{}
			byDay[r.Date] = a
		}
		a.sales = a.sales.Add(format.Decimal(r.SaleTotal))
		a.profit = a.profit.Add(format.Decimal(r.FinalProfit))
	}

	points := make([]domain.DatePoint, 0, len(byDay))
	for day, a := range byDay {
		points = append(points, domain.DatePoint{Date: day, Sales: toFloat(a.sales), Profit: toFloat(a.profit)})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// WeekdayTotals returns sales for all seven weekdays, Monday first, with
// missing days reported as zero.
func WeekdayTotals(rows []domain.Sale) []domain.WeekdayValue {
	var totals [7]decimal.Decimal
	for _, r := range rows {
		i := domain.WeekdayIndex(r.Date.Weekday())
		totals[i] = totals[i].Add(format.Decimal(r.SaleTotal))
	}

	out := make([]domain.WeekdayValue, 7)
	for i := range out {
		out[i] = domain.WeekdayValue{Index: i, Weekday: domain.WeekdayNames[i], Value: toFloat(totals[i])}
	}
	return out
}

// TopProducts ranks products by sales, descending, keeping at most n.
// Ties keep the order in which products first appear in rows.
func TopProducts(rows []domain.Sale, n int) []domain.KeyValue {
	if n <= 0 {
		n = DefaultTopN
	}
	g := newGrouped()
	for _, r := range rows {
		g.add(r.Product, r.SaleTotal)
	}
	ranked := g.byValueDesc()
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ChannelAndDelivery sums sales per sales channel and per delivery mode.
func ChannelAndDelivery(rows []domain.Sale) domain.ChannelDelivery {
	channel, delivery := newGrouped(), newGrouped()
	for _, r := range rows {
		channel.add(r.Channel, r.SaleTotal)
		delivery.add(r.Delivery, r.SaleTotal)
	}
	return domain.ChannelDelivery{Channel: channel.byKey(), Delivery: delivery.byKey()}
}

// Hourly sums sales per hour of day for the hours present.
func Hourly(rows []domain.Sale) []domain.HourValue {
	var totals [24]decimal.Decimal
	var seen [24]bool
	for _, r := range rows {
		h := r.Hour
		if h < 0 || h > 23 {
			continue
		}
		totals[h] = totals[h].Add(format.Decimal(r.SaleTotal))
		seen[h] = true
	}

	out := make([]domain.HourValue, 0, 24)
	for h := 0; h < 24; h++ {
		if seen[h] {
			out = append(out, domain.HourValue{Hour: h, Value: toFloat(totals[h])})
		}
	}
	return out
}

// RatingByNeighborhood averages ratings above zero per neighborhood,
// highest first. Rows without a rating are ignored.
func RatingByNeighborhood(rows []domain.Sale) domain.RatingView {
	type acc struct {
		sum   float64
		count int
	}
	byHood := make(map[string]*acc)
	for _, r := range rows {
		if !r.Rated() {
			continue
		}
		a, ok := byHood[r.Neighborhood]
		if !ok {
			a = &acc{}
			byHood[r.Neighborhood] = a
		}
		a.sum += r.Rating
		a.count++
	}

	if len(byHood) == 0 {
		return domain.RatingView{NoData: true, Message: domain.NoRatingMessage, Items: []domain.KeyValue{}}
	}

	items := make([]domain.KeyValue, 0, len(byHood))
	for hood, a := range byHood {
		items = append(items, domain.KeyValue{Key: hood, Value: a.sum / float64(a.count)})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Value != items[j].Value {
			return items[i].Value > items[j].Value
		}
		return items[i].Key < items[j].Key
	})
	return domain.RatingView{Items: items}
}

// PromotionSplit returns regular and promoted sales totals, in that order.
func PromotionSplit(rows []domain.Sale) []domain.PromotionBucket {
	var regular, promoted decimal.Decimal
	for _, r := range rows {
		if r.Promotion {
			promoted = promoted.Add(format.Decimal(r.SaleTotal))
		} else {
			regular = regular.Add(format.Decimal(r.SaleTotal))
		}
	}
	return []domain.PromotionBucket{
		{Promoted: false, Label: "Não", Value: toFloat(regular)},
		{Promoted: true, Label: "Sim", Value: toFloat(promoted)},
	}
}

// ProfitByCategory sums final profit per product category, highest first.
func ProfitByCategory(rows []domain.Sale) []domain.KeyValue {
	g := newGrouped()
	for _, r := range rows {
		g.add(r.Category, r.FinalProfit)
	}
	out := g.byKey()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// SalesVsTemperature sums sales per observed temperature and fits a least
// squares line through the points. Rows without a temperature are skipped.
func SalesVsTemperature(rows []domain.Sale) domain.TemperatureView {
	byTemp := make(map[float64]decimal.Decimal)
	for _, r := range rows {
		if !r.HasTemperature {
			continue
		}
		byTemp[r.Temperature] = byTemp[r.Temperature].Add(format.Decimal(r.SaleTotal))
	}

	temps := make([]float64, 0, len(byTemp))
	for t := range byTemp {
		temps = append(temps, t)
	}
	sort.Float64s(temps)

	points := make([]domain.TemperaturePoint, 0, len(temps))
	xs := make([]float64, 0, len(temps))
	ys := make([]float64, 0, len(temps))
	for _, t := range temps {
		sales := toFloat(byTemp[t])
		points = append(points, domain.TemperaturePoint{Temperature: t, Sales: sales})
		xs = append(xs, t)
		ys = append(ys, sales)
	}

	trend, ok := FitLine(xs, ys)
	if !ok {
		return domain.TemperatureView{Points: points}
	}
	for i := range points {
		points[i].Fitted = trend.Intercept + trend.Slope*points[i].Temperature
	}
	return domain.TemperatureView{Points: points, Trend: &trend}
}
