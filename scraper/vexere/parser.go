package vexere

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vexere-pipeline/models"
)

// ErrEmptyCard is returned when a trip card carries no company name.
var ErrEmptyCard = errors.New("vexere: trip card has no company name")

// ParseTrip builds a RawTrip from the outer HTML of one trip card and the
// HTML of the results page with its rating modal open.
func ParseTrip(containerHTML, pageHTML string) (*models.RawTrip, error) {
	if strings.TrimSpace(containerHTML) == "" || strings.TrimSpace(pageHTML) == "" {
		return nil, fmt.Errorf("vexere: parse trip: empty html")
	}

	card, err := goquery.NewDocumentFromReader(strings.NewReader(containerHTML))
	if err != nil {
		return nil, fmt.Errorf("vexere: parse card: %w", err)
	}
	page, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("vexere: parse page: %w", err)
	}

	trip := &models.RawTrip{}
	parseCardInfo(card.Selection, trip)
	if trip.CompanyName == "" {
		return nil, ErrEmptyCard
	}
	parseTiming(card.Selection, trip)
	parseFare(card.Selection, trip)
	parseRoute(page.Selection, trip)
	trip.Ratings = ParseRatings(page.Selection)
	return trip, nil
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.First().Text())
}

func parseCardInfo(card *goquery.Selection, trip *models.RawTrip) {
	trip.CompanyName = text(card.Find(".bus-name"))
	trip.BusRating = text(card.Find(".bus-rating span"))
	trip.SeatType = text(card.Find(".seat-type"))
}

func parseTiming(card *goquery.Selection, trip *models.RawTrip) {
	fromTo := card.Find(".from-to-content").First()
	if fromTo.Length() == 0 {
		return
	}

	from := fromTo.Find(".content.from").First()
	trip.DepartureTime = text(from.Find(".hour"))
	trip.PickupPoint = text(from.Find(".place"))

	to := fromTo.Find(".content.to").First()
	trip.ArrivalDate = text(to.Find(".text-date-arrival-time"))
	info := to.Find(".content-to-info").First()
	trip.ArrivalTime = text(info.Find(".hour"))
	trip.DropoffPoint = text(info.Find(".place"))

	trip.Duration = text(fromTo.Find(".duration"))
}

// parseFare reads either a regular fare (one price) or a sale fare (struck
// original, percentage and sale price).
func parseFare(card *goquery.Selection, trip *models.RawTrip) {
	if fare := card.Find("div.fare"); fare.Length() > 0 {
		trip.PriceOriginal = text(fare)
		return
	}
	small := card.Find("div.fareSmall")
	trip.PriceOriginal = text(small.Find("div.small"))
	trip.PercentDiscount = text(small.Find("div.percent"))
	trip.PriceDiscounted = text(card.Find("div.fare-sale"))
}

func parseRoute(page *goquery.Selection, trip *models.RawTrip) {
	trip.DepartureDate = text(page.Find("p.date-input-value"))
	trip.StartPoint, _ = page.Find("#from_input").Attr("value")
	trip.Destination, _ = page.Find("#to_input").Attr("value")
	trip.StartPoint = strings.TrimSpace(trip.StartPoint)
	trip.Destination = strings.TrimSpace(trip.Destination)
}

// ParseRatings reads the rating modal into a title → score map. Rows without
// both a title and a score are skipped.
func ParseRatings(page *goquery.Selection) map[string]string {
	ratings := make(map[string]string)
	page.Find(".detail-rating").First().Find(".rate-title").Each(func(_ int, row *goquery.Selection) {
		ps := row.Find("p")
		if ps.Length() < 2 {
			return
		}
		title := strings.TrimSpace(ps.Eq(0).Text())
		score := strings.TrimSpace(ps.Eq(1).Text())
		if title != "" && score != "" {
			ratings[title] = score
		}
	})
	return ratings
}
