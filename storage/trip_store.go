package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vexere-pipeline/models"
	"vexere-pipeline/utils"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WriteReport counts the outcome of a batch load.
type WriteReport struct {
	Inserted int
	Failed   int
}

// TripStore persists cleaned trips into the normalised schema
// (cities, routes, bus_companies, company_route_ratings, trips).
type TripStore struct {
	db      *sql.DB
	dialect dialect
	logger  *utils.Logger
}

// NewTripStore opens the database for driver ("postgres" or "sqlite"),
// waits for it to answer, runs schema migrations, and returns a
// ready-to-use TripStore.
func NewTripStore(ctx context.Context, driver, dsn string, logger *utils.Logger) (*TripStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if d.name == "sqlite" && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("%s: create db dir: %w", d.name, err)
		}
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.name, err)
	}
	if d.name == "sqlite" {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}

	ping := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
	if err := ping.Do(ctx, d.name+" ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", d.name, err)
	}

	s := &TripStore{db: db, dialect: d, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", d.name, err)
	}
	return s, nil
}

func (s *TripStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.dialect.schema)
	return err
}

// GetOrInsertCity returns the id of the named city, creating it if needed.
func (s *TripStore) GetOrInsertCity(ctx context.Context, q querier, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT city_id FROM cities WHERE city_name = ? LIMIT 1`), name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("select city %q: %w", name, err)
	}
	err = q.QueryRowContext(ctx, s.dialect.rebind(
		`INSERT INTO cities (city_name) VALUES (?) RETURNING city_id`), name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert city %q: %w", name, err)
	}
	return id, nil
}

// GetOrInsertRoute returns the id of the route between two cities.
func (s *TripStore) GetOrInsertRoute(ctx context.Context, q querier, startCityID, destCityID int64) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT route_id FROM routes
		WHERE start_city_id = ? AND destination_city_id = ?
		LIMIT 1`), startCityID, destCityID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("select route: %w", err)
	}
	err = q.QueryRowContext(ctx, s.dialect.rebind(`
		INSERT INTO routes (start_city_id, destination_city_id)
		VALUES (?, ?)
		RETURNING route_id`), startCityID, destCityID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert route: %w", err)
	}
	return id, nil
}

func ratingArgs(t *models.Trip) []any {
	return []any{
		t.ReviewerCount, t.RatingOverall, t.RatingSafety,
		t.RatingInfoAccuracy, t.RatingInfoCompleteness, t.RatingStaffAttitude,
		t.RatingComfort, t.RatingServiceQuality, t.RatingPunctuality,
	}
}

// UpsertCompany stores the company's latest ratings and returns its id.
func (s *TripStore) UpsertCompany(ctx context.Context, q querier, t *models.Trip) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT company_id FROM bus_companies WHERE company_name = ? LIMIT 1`), t.CompanyName).Scan(&id)
	switch {
	case err == nil:
		args := append(ratingArgs(t), id)
		if _, err := q.ExecContext(ctx, s.dialect.rebind(`
			UPDATE bus_companies
			SET reviewer_count = ?, rating_overall = ?, rating_safety = ?,
				rating_info_accuracy = ?, rating_info_completeness = ?,
				rating_staff_attitude = ?, rating_comfort = ?,
				rating_service_quality = ?, rating_punctuality = ?
			WHERE company_id = ?`), args...); err != nil {
			return 0, fmt.Errorf("update company %q: %w", t.CompanyName, err)
		}
		return id, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("select company %q: %w", t.CompanyName, err)
	}

	args := append([]any{t.CompanyName}, ratingArgs(t)...)
	err = q.QueryRowContext(ctx, s.dialect.rebind(`
		INSERT INTO bus_companies (
			company_name, reviewer_count, rating_overall, rating_safety,
			rating_info_accuracy, rating_info_completeness, rating_staff_attitude,
			rating_comfort, rating_service_quality, rating_punctuality
		) VALUES (?,?,?,?,?,?,?,?,?,?)
		RETURNING company_id`), args...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert company %q: %w", t.CompanyName, err)
	}
	return id, nil
}

// InsertCompanyRouteRating records the company's rating on a route for one
// crawl date. A second record for the same day is ignored; inserted reports
// whether a row was written.
func (s *TripStore) InsertCompanyRouteRating(ctx context.Context, q querier, companyID, routeID int64, t *models.Trip, crawlDate string) (bool, error) {
	args := append([]any{companyID, routeID, crawlDate}, ratingArgs(t)...)
	res, err := q.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO company_route_ratings (
			company_id, route_id, crawl_date, reviewer_count,
			rating_overall, rating_safety, rating_info_accuracy,
			rating_info_completeness, rating_staff_attitude,
			rating_comfort, rating_service_quality, rating_punctuality
		)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (company_id, route_id, crawl_date) DO NOTHING`), args...)
	if err != nil {
		return false, fmt.Errorf("insert company route rating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert company route rating: %w", err)
	}
	return n > 0, nil
}

// InsertTrip stores one departure and returns its id.
func (s *TripStore) InsertTrip(ctx context.Context, q querier, companyID, routeID int64, t *models.Trip) (int64, error) {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var id int64
	err := q.QueryRowContext(ctx, s.dialect.rebind(`
		INSERT INTO trips (
			company_id, route_id, number_of_seat,
			departure_date, departure_time, arrival_time,
			duration_minutes, pickup_point, dropoff_point,
			price_original, price_discounted, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		RETURNING trip_id`),
		companyID, routeID, t.NumberOfSeat,
		t.DepartureDate, t.DepartureTime, t.ArrivalTime,
		t.DurationMinutes, t.PickupPoint, t.DropoffPoint,
		t.PriceOriginal, t.PriceDiscounted, createdAt.UTC().Format(time.RFC3339),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert trip: %w", err)
	}
	return id, nil
}

// Write loads trips one by one, each in its own transaction. A failing trip
// is rolled back, logged and counted; the rest of the batch continues.
func (s *TripStore) Write(ctx context.Context, trips []*models.Trip) (WriteReport, error) {
	var report WriteReport
	for i, t := range trips {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.writeOne(ctx, t); err != nil {
			report.Failed++
			s.logger.Warn("[store] Row %d (%s %s %s) failed: %v", i, t.CompanyName, t.DepartureDate, t.DepartureTime, err)
			continue
		}
		report.Inserted++
	}
	s.logger.Info("[store] Loaded %d trips (%d failed)", report.Inserted, report.Failed)
	return report, nil
}

func (s *TripStore) writeOne(ctx context.Context, t *models.Trip) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	startID, err := s.GetOrInsertCity(ctx, tx, t.StartPoint)
	if err != nil {
		return err
	}
	destID, err := s.GetOrInsertCity(ctx, tx, t.Destination)
	if err != nil {
		return err
	}
	routeID, err := s.GetOrInsertRoute(ctx, tx, startID, destID)
	if err != nil {
		return err
	}
	companyID, err := s.UpsertCompany(ctx, tx, t)
	if err != nil {
		return err
	}

	crawled := t.CreatedAt
	if crawled.IsZero() {
		crawled = time.Now()
	}
	if _, err = s.InsertCompanyRouteRating(ctx, tx, companyID, routeID, t, crawled.Format("2006-01-02")); err != nil {
		return err
	}
	if t.ID, err = s.InsertTrip(ctx, tx, companyID, routeID, t); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FetchTrips returns every stored trip with its company ratings and route
// city names, ordered by id.
func (s *TripStore) FetchTrips(ctx context.Context) ([]*models.Trip, error) {
	d := s.dialect
	query := `
		SELECT t.trip_id, c.company_name, sc.city_name, dc.city_name,
			` + d.dateText("t.departure_date") + `, ` + d.timeText("t.departure_time") + `,
			` + d.timeText("t.arrival_time") + `,
			COALESCE(t.duration_minutes, 0), COALESCE(t.pickup_point, ''), COALESCE(t.dropoff_point, ''),
			COALESCE(t.number_of_seat, 0), t.price_original, t.price_discounted,
			c.rating_overall, c.reviewer_count, c.rating_safety, c.rating_info_accuracy,
			c.rating_info_completeness, c.rating_staff_attitude, c.rating_comfort,
			c.rating_service_quality, c.rating_punctuality
		FROM trips t
		JOIN bus_companies c ON c.company_id = t.company_id
		JOIN routes r ON r.route_id = t.route_id
		JOIN cities sc ON sc.city_id = r.start_city_id
		JOIN cities dc ON dc.city_id = r.destination_city_id
		ORDER BY t.trip_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch trips: %w", d.name, err)
	}
	defer rows.Close()

	var trips []*models.Trip
	for rows.Next() {
		t := &models.Trip{}
		if err := rows.Scan(
			&t.ID, &t.CompanyName, &t.StartPoint, &t.Destination,
			&t.DepartureDate, &t.DepartureTime, &t.ArrivalTime,
			&t.DurationMinutes, &t.PickupPoint, &t.DropoffPoint,
			&t.NumberOfSeat, &t.PriceOriginal, &t.PriceDiscounted,
			&t.RatingOverall, &t.ReviewerCount, &t.RatingSafety, &t.RatingInfoAccuracy,
			&t.RatingInfoCompleteness, &t.RatingStaffAttitude, &t.RatingComfort,
			&t.RatingServiceQuality, &t.RatingPunctuality,
		); err != nil {
			return nil, fmt.Errorf("%s: scan trip: %w", d.name, err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// Close closes the database handle.
func (s *TripStore) Close() error {
	return s.db.Close()
}
