package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/fleet-trips-backend-go/internal/spatial"
)

const (
	DefaultBaseURL  = "http://osrm:5000"
	SnapMethod      = "osrm-pairwise-match"
	coordPrecision  = 6
	defaultTimeout  = 5 * time.Second
	cacheSize       = 512
)

// Client snaps vehicle tracks to the road network with an OSRM server.
// Each consecutive pair of points is matched, then routed, then kept as a
// straight segment when both requests fail.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration // per request

	cache *expirable.LRU[string, *geojson.Feature]
}

// NewClient creates a client with a snapped-route cache. A non-positive
// cacheTTL disables caching.
func NewClient(baseURL string, timeout, cacheTTL time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: http.DefaultClient,
		Timeout:    timeout,
	}
	if cacheTTL > 0 {
		c.cache = expirable.NewLRU[string, *geojson.Feature](cacheSize, nil, cacheTTL)
	}
	return c
}

// SnapRoute returns a LineString feature following the roads between the
// given points, or nil when fewer than two distinct valid points remain.
// Pair failures degrade to straight segments and set the hadFailures property.
func (c *Client) SnapRoute(ctx context.Context, points []spatial.Point) (*geojson.Feature, error) {
	normalized := normalizePoints(points)
	if len(normalized) < 2 {
		return nil, nil
	}

	key := cacheKey(normalized)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return cached, nil
		}
	}

	var stitched orb.LineString
	hadFailures := false

	for i := 0; i < len(normalized)-1; i++ {
		start, end := normalized[i], normalized[i+1]

		segment, matchErr := c.fetchPair(ctx, "match", start, end)
		if matchErr != nil {
			var routeErr error
			segment, routeErr = c.fetchPair(ctx, "route", start, end)
			if routeErr != nil {
				if err := ctx.Err(); err != nil {
					return nil, fmt.Errorf("failed to snap route: %w", err)
				}
				hadFailures = true
				log.Printf("[OSRM] pair %d fallback to raw segment. match=%v; route=%v", i+1, matchErr, routeErr)
				segment = orb.LineString{{start.Lon, start.Lat}, {end.Lon, end.Lat}}
			}
		}

		stitched = appendCoordinates(stitched, segment)
	}

	if len(stitched) < 2 {
		return nil, nil
	}

	feature := geojson.NewFeature(stitched)
	feature.Properties["snapMethod"] = SnapMethod
	feature.Properties["hadFailures"] = hadFailures

	if c.cache != nil {
		c.cache.Add(key, feature)
	}
	return feature, nil
}

type geometry struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

type osrmResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Matchings []struct {
		Geometry geometry `json:"geometry"`
	} `json:"matchings"`
	Routes []struct {
		Geometry geometry `json:"geometry"`
	} `json:"routes"`
}

// fetchPair calls the match or route service for one pair of points
func (c *Client) fetchPair(ctx context.Context, service string, a, b spatial.Point) (orb.LineString, error) {
	query := "geometries=geojson&overview=full&steps=false"
	if service == "match" {
		query = "geometries=geojson&overview=full&tidy=true&gaps=split"
	}
	url := fmt.Sprintf("%s/%s/v1/driving/%s?%s", c.BaseURL, service, pairCoords(a, b), query)

	ctx, cancel := context.WithTimeout(ctx, c.effectiveTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("OSRM %s request failed: %w", service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("OSRM %s read failed: %w", service, err)
	}

	var data osrmResponse
	decodeErr := json.Unmarshal(body, &data)

	if resp.StatusCode != http.StatusOK {
		detail := errorDetail(body, data, decodeErr)
		if detail != "" {
			return nil, fmt.Errorf("OSRM %s error: %d - %s", service, resp.StatusCode, detail)
		}
		return nil, fmt.Errorf("OSRM %s error: %d", service, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("OSRM %s error: InvalidResponse", service)
	}
	if data.Code != "" && data.Code != "Ok" {
		if data.Message != "" {
			return nil, fmt.Errorf("OSRM %s error: %s - %s", service, data.Code, data.Message)
		}
		return nil, fmt.Errorf("OSRM %s error: %s", service, data.Code)
	}

	var coords [][2]float64
	if service == "match" && len(data.Matchings) > 0 {
		coords = data.Matchings[0].Geometry.Coordinates
	}
	if service == "route" && len(data.Routes) > 0 {
		coords = data.Routes[0].Geometry.Coordinates
	}
	if len(coords) < 2 {
		return nil, errors.New("OSRM " + service + " returned empty geometry")
	}

	line := make(orb.LineString, len(coords))
	for i, p := range coords {
		line[i] = orb.Point{p[0], p[1]}
	}
	return line, nil
}

func errorDetail(body []byte, data osrmResponse, decodeErr error) string {
	if decodeErr == nil {
		if data.Message != "" {
			return data.Message
		}
		if data.Code != "" {
			return data.Code
		}
	}
	raw := string(body)
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return raw
}

// normalizePoints drops invalid points, rounds to the coordinate precision
// and removes consecutive duplicates.
func normalizePoints(points []spatial.Point) []spatial.Point {
	var out []spatial.Point
	for _, p := range points {
		if !p.Valid() {
			continue
		}
		rounded := spatial.Point{Lat: round(p.Lat), Lon: round(p.Lon)}
		if n := len(out); n > 0 && out[n-1] == rounded {
			continue
		}
		out = append(out, rounded)
	}
	return out
}

func appendCoordinates(target, coords orb.LineString) orb.LineString {
	if len(coords) == 0 {
		return target
	}
	if n := len(target); n > 0 && target[n-1] == coords[0] {
		coords = coords[1:]
	}
	return append(target, coords...)
}

func cacheKey(points []spatial.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fixed(p.Lat) + "," + fixed(p.Lon)
	}
	return "match-v2|" + strings.Join(parts, ";")
}

func pairCoords(a, b spatial.Point) string {
	return fixed(a.Lon) + "," + fixed(a.Lat) + ";" + fixed(b.Lon) + "," + fixed(b.Lat)
}

func fixed(v float64) string {
	return strconv.FormatFloat(v, 'f', coordPrecision, 64)
}

func round(v float64) float64 {
	p := math.Pow(10, coordPrecision)
	return math.Round(v*p) / p
}

func (c *Client) effectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
