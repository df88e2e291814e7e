package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"civicpulse/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// GeocodedAddress is the human-readable location for a point.
type GeocodedAddress struct {
	Address string `json:"address"`
	Area    string `json:"area"`
}

// Geocoder resolves lat/lng into an address via Nominatim. The shared provider
// allows at most one request per second, enforced with a Redis window counter;
// on throttle or provider failure the lookup degrades to a raw-coordinate
// label instead of blocking submission.
type Geocoder struct {
	BaseURL string
	Redis   *redis.Client
	Client  *http.Client
}

// NewGeocoder creates a geocoder against the configured provider.
func NewGeocoder(baseURL string, rdb *redis.Client) *Geocoder {
	return &Geocoder{
		BaseURL: baseURL,
		Redis:   rdb,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FallbackLabel is the coordinate-only address used when geocoding degrades.
func FallbackLabel(lat, lng float64) GeocodedAddress {
	return GeocodedAddress{
		Address: fmt.Sprintf("%.4f, %.4f", lat, lng),
		Area:    "Unknown area",
	}
}

// Reverse looks up the address for a point.
func (g *Geocoder) Reverse(ctx context.Context, lat, lng float64) GeocodedAddress {
	ok, err := g.allow(ctx)
	if err != nil {
		log.Printf("geocode: rate limiter unavailable: %v", err)
	}
	if !ok {
		return FallbackLabel(lat, lng)
	}

	url := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&format=json", g.BaseURL, lat, lng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FallbackLabel(lat, lng)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		log.Printf("geocode: request failed: %v", err)
		return FallbackLabel(lat, lng)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("geocode: provider returned %d", resp.StatusCode)
		return FallbackLabel(lat, lng)
	}

	var payload struct {
		DisplayName string `json:"display_name"`
		Address     struct {
			Suburb        string `json:"suburb"`
			Neighbourhood string `json:"neighbourhood"`
			City          string `json:"city"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return FallbackLabel(lat, lng)
	}

	out := GeocodedAddress{Address: payload.DisplayName, Area: payload.Address.Suburb}
	if out.Address == "" {
		out.Address = FallbackLabel(lat, lng).Address
	}
	if out.Area == "" {
		out.Area = payload.Address.Neighbourhood
	}
	if out.Area == "" {
		out.Area = payload.Address.City
	}
	if out.Area == "" {
		out.Area = "Unknown area"
	}
	return out
}

// allow consumes one slot of the 1 req/s provider budget. Fixed window keyed
// in Redis so all instances share the limit.
func (g *Geocoder) allow(ctx context.Context) (bool, error) {
	if g.Redis == nil {
		return true, nil
	}

	key := "rate:geocode"
	count, err := g.Redis.Incr(ctx, key).Result()
	if err != nil {
		// limiter down: fail open, the provider has its own enforcement
		return true, err
	}
	if count == 1 {
		if err := g.Redis.Expire(ctx, key, config.GeocodeMinInterval).Err(); err != nil {
			return true, err
		}
	}
	return count <= 1, nil
}
