/*
Package clinics looks up veterinary clinics around a coordinate using the
OpenStreetMap Overpass API.
*/
package clinics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"PawTriage/internal/config"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

const (
	DefaultRadiusMeters = 5000
	MaxRadiusMeters     = 50000

	// DefaultName is used for clinics mapped without a name tag.
	DefaultName = "Veterinary Clinic"

	earthRadiusKm  = 6371.0
	requestTimeout = 25 * time.Second
)

var (
	ErrInvalidLocation = errors.New("invalid location")
	ErrLocationFailed  = errors.New("clinic lookup failed")
)

// Clinic is one veterinary practice near the caller.
type Clinic struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Address      string  `json:"address"`
	Phone        string  `json:"phone,omitempty"`
	Website      string  `json:"website,omitempty"`
	OpeningHours string  `json:"opening_hours,omitempty"`
	DistanceKm   float64 `json:"distance_km"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Finder queries Overpass and caches the clinics found per area.
type Finder struct {
	url        string
	httpClient *http.Client
	cache      *expirable.LRU[string, []Clinic]
	log        *zerolog.Logger
}

// NewFinder builds a Finder from the Overpass settings.
func NewFinder(cfg config.OverpassConfig, log *zerolog.Logger) *Finder {
	size := cfg.CacheSize
	if size <= 0 {
		size = 256
	}
	return &Finder{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: requestTimeout},
		cache:      expirable.NewLRU[string, []Clinic](size, nil, cfg.CacheTTL),
		log:        log,
	}
}

// FindNearby returns the clinics within radiusMeters of (lat, lon), nearest
// first. A radius of zero or less means DefaultRadiusMeters; larger radii are
// capped at MaxRadiusMeters.
func (f *Finder) FindNearby(ctx context.Context, lat, lon float64, radiusMeters int) ([]Clinic, error) {
	if !validCoordinate(lat, lon) {
		return nil, fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidLocation, lat, lon)
	}
	switch {
	case radiusMeters <= 0:
		radiusMeters = DefaultRadiusMeters
	case radiusMeters > MaxRadiusMeters:
		radiusMeters = MaxRadiusMeters
	}

	key := cacheKey(lat, lon, radiusMeters)
	found, ok := f.cache.Get(key)
	if ok {
		f.log.Debug().Str("key", key).Msg("Clinic cache hit")
	} else {
		var err error
		found, err = f.query(ctx, lat, lon, radiusMeters)
		if err != nil {
			f.log.Error().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("Overpass query failed")
			return nil, fmt.Errorf("%w: %w", ErrLocationFailed, err)
		}
		f.cache.Add(key, found)
	}

	out := make([]Clinic, len(found))
	copy(out, found)
	for i := range out {
		out[i].DistanceKm = math.Round(Haversine(lat, lon, out[i].Lat, out[i].Lon)*10) / 10
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

func (f *Finder) query(ctx context.Context, lat, lon float64, radius int) ([]Clinic, error) {
	form := url.Values{"data": {buildQuery(lat, lon, radius)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("overpass returned %s: %s", resp.Status, string(body))
	}

	var op overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}

	clinics := make([]Clinic, 0, len(op.Elements))
	for _, el := range op.Elements {
		if c, ok := el.clinic(); ok {
			clinics = append(clinics, c)
		}
	}
	return clinics, nil
}

func buildQuery(lat, lon float64, radius int) string {
	around := fmt.Sprintf("(around:%d,%f,%f)", radius, lat, lon)
	return "[out:json][timeout:25];(" +
		`node["amenity"="veterinary"]` + around + ";" +
		`way["amenity"="veterinary"]` + around + ";" +
		`relation["amenity"="veterinary"]` + around + ";" +
		");out center tags;"
}

// clinic converts an element; ways and relations are placed at their center.
func (el overpassElement) clinic() (Clinic, bool) {
	lat, lon := el.Lat, el.Lon
	if el.Type != "node" {
		if el.Center == nil {
			return Clinic{}, false
		}
		lat, lon = el.Center.Lat, el.Center.Lon
	}

	name := strings.TrimSpace(el.Tags["name"])
	if name == "" {
		name = DefaultName
	}
	return Clinic{
		ID:           fmt.Sprintf("%s/%d", el.Type, el.ID),
		Name:         name,
		Lat:          lat,
		Lon:          lon,
		Address:      formatAddress(el.Tags),
		Phone:        firstTag(el.Tags, "phone", "contact:phone"),
		Website:      firstTag(el.Tags, "website", "contact:website"),
		OpeningHours: el.Tags["opening_hours"],
	}, true
}

// formatAddress joins the addr:* tags as "12 Main St, 12345 Springfield".
func formatAddress(tags map[string]string) string {
	street := strings.TrimSpace(tags["addr:housenumber"] + " " + tags["addr:street"])
	city := strings.TrimSpace(tags["addr:postcode"] + " " + tags["addr:city"])

	var parts []string
	for _, p := range []string{street, city} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(tags["addr:full"])
	}
	return strings.Join(parts, ", ")
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}

func validCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// cacheKey rounds to about 100 m so nearby callers share an entry.
func cacheKey(lat, lon float64, radius int) string {
	return fmt.Sprintf("%.3f,%.3f,%d", lat, lon, radius)
}

// Haversine returns the great-circle distance in kilometres.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
