package services

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"vexere-pipeline/clustering"
	"vexere-pipeline/models"
	"vexere-pipeline/utils"
)

// TopCompanyCount is how many companies the report ranks.
const TopCompanyCount = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes descriptive statistics over cleaned trips.
func (s *InsightService) Generate(trips []*models.Trip) *models.InsightReport {
	report := &models.InsightReport{
		TripsByRoute: make(map[string]int),
	}

	if len(trips) == 0 {
		return report
	}

	report.TotalTrips = len(trips)

	type companyAgg struct {
		ratingSum float64
		reviewers int
		trips     int
	}
	companies := make(map[string]*companyAgg)

	var priceTotal, discountTotal float64
	var priced, discounted int

	for _, t := range trips {
		if t.StartPoint != "" && t.Destination != "" {
			report.TripsByRoute[t.StartPoint+" → "+t.Destination]++
		}

		agg, ok := companies[t.CompanyName]
		if !ok {
			agg = &companyAgg{}
			companies[t.CompanyName] = agg
		}
		agg.ratingSum += t.RatingOverall
		agg.trips++
		// every card of a company shows the same company-wide count
		if t.ReviewerCount > agg.reviewers {
			agg.reviewers = t.ReviewerCount
		}

		price := t.RealPrice()
		if price <= 0 {
			continue
		}
		if priced == 0 || price < report.MinRealPrice {
			report.MinRealPrice = price
		}
		if price > report.MaxRealPrice {
			report.MaxRealPrice = price
			report.MostExpensive = t
		}
		priceTotal += float64(price)
		priced++

		if t.PriceOriginal > 0 {
			discountTotal += 1 - float64(price)/float64(t.PriceOriginal)
			discounted++
		}
	}

	if priced > 0 {
		report.AverageRealPrice = round2(priceTotal / float64(priced))
	}
	if discounted > 0 {
		report.AverageDiscount = round4(discountTotal / float64(discounted))
	}

	report.Companies = len(companies)
	scores := make([]models.CompanyScore, 0, len(companies))
	for name, agg := range companies {
		rating := agg.ratingSum / float64(agg.trips)
		scores = append(scores, models.CompanyScore{
			CompanyName:   name,
			RatingOverall: round2(rating),
			ReviewerCount: agg.reviewers,
			WilsonScore:   clustering.WilsonLowerBound(rating/5, agg.reviewers, clustering.WilsonZ),
			Trips:         agg.trips,
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].WilsonScore != scores[j].WilsonScore {
			return scores[i].WilsonScore > scores[j].WilsonScore
		}
		return scores[i].CompanyName < scores[j].CompanyName
	})
	if len(scores) > TopCompanyCount {
		scores = scores[:TopCompanyCount]
	}
	report.TopCompanies = scores

	s.logger.Debug("[insights] %d trips, %d companies, %d routes",
		report.TotalTrips, report.Companies, len(report.TripsByRoute))
	return report
}

// Print renders the report as tables on w.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	fmt.Fprintln(w)

	overview := newTable(w, "Overview")
	overview.AppendRows([]table.Row{
		{"Total trips", r.TotalTrips},
		{"Bus companies", r.Companies},
		{"Routes", len(r.TripsByRoute)},
	})
	if r.AverageRealPrice > 0 {
		overview.AppendRows([]table.Row{
			{"Average price", FormatPrice(int64(math.Round(r.AverageRealPrice))) + " đ"},
			{"Minimum price", FormatPrice(r.MinRealPrice) + " đ"},
			{"Maximum price", FormatPrice(r.MaxRealPrice) + " đ"},
			{"Average discount", fmt.Sprintf("%.1f%%", r.AverageDiscount*100)},
		})
	} else {
		overview.AppendRow(table.Row{"Prices", "no price data available"})
	}
	overview.Render()

	if r.MostExpensive != nil {
		t := r.MostExpensive
		exp := newTable(w, "Most expensive trip")
		exp.AppendRows([]table.Row{
			{"Company", t.CompanyName},
			{"Route", t.StartPoint + " → " + t.Destination},
			{"Departure", t.DepartureDate + " " + t.DepartureTime},
			{"Price", FormatPrice(t.RealPrice()) + " đ"},
		})
		exp.Render()
	}

	top := newTable(w, fmt.Sprintf("Top %d companies by Wilson score", TopCompanyCount))
	top.AppendHeader(table.Row{"#", "Company", "Rating", "Reviews", "Wilson", "Trips"})
	if len(r.TopCompanies) == 0 {
		top.AppendRow(table.Row{"", "no rated companies found"})
	}
	for i, c := range r.TopCompanies {
		top.AppendRow(table.Row{i + 1, truncate(c.CompanyName, 40), fmt.Sprintf("%.2f", c.RatingOverall),
			c.ReviewerCount, fmt.Sprintf("%.4f", c.WilsonScore), c.Trips})
	}
	top.Render()

	routes := newTable(w, "Trips by route")
	routes.AppendHeader(table.Row{"Route", "Trips"})
	type routeCount struct {
		route string
		count int
	}
	var rcs []routeCount
	for route, n := range r.TripsByRoute {
		rcs = append(rcs, routeCount{route, n})
	}
	sort.Slice(rcs, func(i, j int) bool {
		if rcs[i].count != rcs[j].count {
			return rcs[i].count > rcs[j].count
		}
		return rcs[i].route < rcs[j].route
	})
	for _, rc := range rcs {
		routes.AppendRow(table.Row{rc.route, rc.count})
	}
	routes.Render()
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	return t
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
