package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pharmavoice/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	placesEndpoint = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	cachePrefix    = "places:pharmacy:"
	cacheTTL       = 24 * time.Hour
	maxResults     = 3
)

// placesResponse mirrors the fields we read from the Google Places API.
type placesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

// Service resolves a postal code to nearby pharmacies via the Google
// Places API, caching results in Redis.
type Service struct {
	APIKey string
	Cache  *redis.Client
	Logger *zap.Logger
	client *http.Client
}

// NewService creates a pharmacy lookup service.
func NewService(apiKey string, cache *redis.Client, logger *zap.Logger) *Service {
	return &Service{
		APIKey: apiKey,
		Cache:  cache,
		Logger: logger,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// FindByPostalCode returns up to three pharmacies near the postal code.
func (s *Service) FindByPostalCode(ctx context.Context, postalCode string) ([]models.Pharmacy, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("places API key not configured")
	}

	cacheKey := cachePrefix + postalCode
	if s.Cache != nil {
		if cached, err := s.Cache.Get(ctx, cacheKey).Result(); err == nil {
			var pharmacies []models.Pharmacy
			if err := json.Unmarshal([]byte(cached), &pharmacies); err == nil {
				return pharmacies, nil
			}
		}
	}

	query := url.Values{}
	query.Set("query", "pharmacy near "+postalCode)
	query.Set("key", s.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, placesEndpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("places response parse failed: %w", err)
	}
	if decoded.Status != "OK" && decoded.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places status %s", decoded.Status)
	}

	var pharmacies []models.Pharmacy
	for i, r := range decoded.Results {
		if i >= maxResults {
			break
		}
		pharmacies = append(pharmacies, models.Pharmacy{Name: r.Name, Address: r.FormattedAddress})
	}

	if s.Cache != nil {
		if b, err := json.Marshal(pharmacies); err == nil {
			if err := s.Cache.Set(ctx, cacheKey, b, cacheTTL).Err(); err != nil {
				s.Logger.Debug("places cache write failed", zap.Error(err))
			}
		}
	}
	return pharmacies, nil
}
