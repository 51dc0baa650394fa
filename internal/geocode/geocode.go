package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/joshua-takyi/businessly/internal/geo"
)

const (
	DefaultURL       = "https://nominatim.openstreetmap.org/search"
	DefaultUserAgent = "businessly/1.0"
	DefaultCountry   = "Canada"
)

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrUnavailable     = errors.New("geocoding service unavailable")
)

// Geocoder turns a street address into a point.
type Geocoder interface {
	Geocode(ctx context.Context, address, city, province string) (geo.Point, error)
}

var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)#\s*\w+`),
	regexp.MustCompile(`(?i)\b(unit|suite|apt|apartment|ste|floor|ground)\b\.?\s*\w+`),
}

// SanitizeAddress lower-cases the street and drops unit, suite and floor
// designators, which Nominatim does not match on.
func SanitizeAddress(address string) string {
	cleaned := strings.ToLower(address)
	for _, p := range unitPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	return strings.Join(strings.Fields(cleaned), " ")
}

type Config struct {
	URL       string
	UserAgent string
	Timeout   time.Duration

	// Breaker settings. Zero values fall back to defaults.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Nominatim is a Geocoder backed by the OpenStreetMap search API, guarded by
// a circuit breaker so an outage fails fast instead of stalling requests.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[geo.Point]
	logger    *slog.Logger
}

func NewNominatim(cfg Config, logger *slog.Logger) *Nominatim {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	n := &Nominatim{
		baseURL:   cfg.URL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
	threshold := cfg.FailureThreshold
	n.breaker = gobreaker.NewCircuitBreaker[geo.Point](gobreaker.Settings{
		Name:        "nominatim",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A miss is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrAddressNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Geocoder circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return n
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *Nominatim) Geocode(ctx context.Context, address, city, province string) (geo.Point, error) {
	query := fmt.Sprintf("%s, %s, %s, %s", SanitizeAddress(address), strings.TrimSpace(city), strings.TrimSpace(province), DefaultCountry)

	point, err := n.breaker.Execute(func() (geo.Point, error) {
		return n.search(ctx, query)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return geo.Point{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return point, err
}

func (n *Nominatim) search(ctx context.Context, query string) (geo.Point, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return geo.Point{}, fmt.Errorf("failed to build geocode request: %v", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return geo.Point{}, fmt.Errorf("%w: invalid response: %v", ErrUnavailable, err)
	}
	if len(results) == 0 {
		return geo.Point{}, ErrAddressNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: invalid latitude %q", ErrUnavailable, results[0].Lat)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: invalid longitude %q", ErrUnavailable, results[0].Lon)
	}
	if !geo.ValidCoordinates(lat, lng) {
		return geo.Point{}, fmt.Errorf("%w: coordinates out of range", ErrUnavailable)
	}
	return geo.Point{Lat: lat, Lng: lng}, nil
}
