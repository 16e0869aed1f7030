package source

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/covid-state-tracker/internal/domain"
)

// PopulationSource loads census population estimates from one location.
type PopulationSource struct {
	client   *Client
	location string
	column   string
}

// NewPopulationSource creates a population source reading column from location.
func NewPopulationSource(client *Client, location, column string) *PopulationSource {
	return &PopulationSource{client: client, location: location, column: column}
}

// FetchPopulation opens and parses the population estimates.
func (s *PopulationSource) FetchPopulation(ctx context.Context) ([]domain.PopulationRecord, error) {
	start := time.Now()
	defer s.client.observe("population", start)

	rc, err := s.client.Open(ctx, s.location)
	if err != nil {
		return nil, fmt.Errorf("fetch population: %w", err)
	}
	defer rc.Close()

	records, err := ParsePopulation(rc, s.column)
	if err != nil {
		return nil, fmt.Errorf("fetch population: %w", err)
	}
	s.client.logger.Info("population fetched", "location", s.location, "records", len(records))
	return records, nil
}

// ObservationSource loads daily cumulative state counts from one location.
type ObservationSource struct {
	client   *Client
	location string
}

// NewObservationSource creates an observation source reading from location.
func NewObservationSource(client *Client, location string) *ObservationSource {
	return &ObservationSource{client: client, location: location}
}

// FetchObservations opens and parses the daily observations.
func (s *ObservationSource) FetchObservations(ctx context.Context) ([]domain.RawObservation, error) {
	start := time.Now()
	defer s.client.observe("observations", start)

	rc, err := s.client.Open(ctx, s.location)
	if err != nil {
		return nil, fmt.Errorf("fetch observations: %w", err)
	}
	defer rc.Close()

	raw, invalid, err := ParseObservations(rc)
	if err != nil {
		return nil, fmt.Errorf("fetch observations: %w", err)
	}
	if len(invalid) > 0 {
		s.client.metrics.InvalidCells.Add(float64(len(invalid)))
		s.client.logger.Warn("non-numeric count cells read as absent",
			"location", s.location, "count", len(invalid), "first", invalid[0].String())
	}
	s.client.logger.Info("observations fetched", "location", s.location, "records", len(raw))
	return raw, nil
}

func (c *Client) observe(source string, start time.Time) {
	c.metrics.SourceFetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
