package storage

import (
	"context"

	"vexere-pipeline/models"
)

// TripWriter is the interface any relational backend must satisfy.
type TripWriter interface {
	Write(ctx context.Context, trips []*models.Trip) (WriteReport, error)
	Close() error
}

// TripReader returns stored trips for insights and training.
type TripReader interface {
	FetchTrips(ctx context.Context) ([]*models.Trip, error)
}

// RawTripWriter is the interface for persisting unprocessed scraped data.
type RawTripWriter interface {
	WriteRaw(trips []*models.RawTrip) error
	Close() error
}

var (
	_ TripWriter    = (*TripStore)(nil)
	_ TripReader    = (*TripStore)(nil)
	_ RawTripWriter = (*CSVWriter)(nil)
)
