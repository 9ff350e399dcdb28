// Package directory provides barber discovery for the home and listing
// screens. The full listing is cached for a short TTL because it backs
// several screens at once; individual profiles are never cached so a detail
// screen always re-fetches on entry.
package directory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/barberbook/bookingkit/internal/api"
	"github.com/barberbook/bookingkit/pkg/logging"
)

const listingKey = "barbers:all"

// Lister is the slice of the API client the directory needs.
type Lister interface {
	ListBarbers(ctx context.Context) ([]api.Barber, error)
	GetBarber(ctx context.Context, id string) (*api.Barber, error)
}

// Service lists and resolves barbers with a TTL-cached listing.
type Service struct {
	client Lister
	cache  *cache.Cache
	logger *logging.Logger
}

// New creates a directory service. ttl bounds how stale the listing may be.
func New(client Lister, ttl time.Duration, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		client: client,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// List returns all barbers, served from cache within the TTL.
func (s *Service) List(ctx context.Context) ([]api.Barber, error) {
	if cached, ok := s.cache.Get(listingKey); ok {
		return cached.([]api.Barber), nil
	}
	barbers, err := s.client.ListBarbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	s.cache.SetDefault(listingKey, barbers)
	return barbers, nil
}

// Refresh drops the cached listing and fetches a fresh one.
func (s *Service) Refresh(ctx context.Context) ([]api.Barber, error) {
	s.cache.Delete(listingKey)
	return s.List(ctx)
}

// Get resolves one barber profile, always hitting the backend.
func (s *Service) Get(ctx context.Context, id string) (*api.Barber, error) {
	barber, err := s.client.GetBarber(ctx, id)
	if err != nil {
		return nil, err
	}
	return barber, nil
}

// TopRated returns up to n barbers ordered by rating, for the home screen's
// featured row. Ratings absent from the payload sort as zero.
func (s *Service) TopRated(ctx context.Context, n int) ([]api.Barber, error) {
	barbers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ranked := append([]api.Barber(nil), barbers...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rating > ranked[j].Rating
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n], nil
}
