package spatial

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// LocationWarning classifies why a location value produced no point
type LocationWarning string

const (
	LocationMissing     LocationWarning = "location_missing"
	LocationParseFailed LocationWarning = "location_parse_failed"
)

// LocationResult is the outcome of ParseLocation. Exactly one of Point and
// Warning is set.
type LocationResult struct {
	Point   *Point
	Warning LocationWarning
}

var (
	pgPointPattern   = regexp.MustCompile(`^\(([-+\d.]+),\s*([-+\d.]+)\)$`)
	wktPointPattern  = regexp.MustCompile(`(?i)^POINT\s*\(\s*([-+\d.]+)\s+([-+\d.]+)\s*\)$`)
	ewktPointPattern = regexp.MustCompile(`(?i)^SRID=\d+;\s*POINT(?:\s+[A-Z]+)?\s*\(\s*([-+\d.]+)\s+([-+\d.]+)(?:\s+[-+\d.]+(?:\s+[-+\d.]+)?)?\s*\)$`)
	csvPointPattern  = regexp.MustCompile(`^([-+\d.]+)\s*,\s*([-+\d.]+)$`)
	hexWKBPattern    = regexp.MustCompile(`^(?:\\x)?[0-9a-fA-F]+$`)
)

// WKB geometry type word
const (
	wkbSRIDFlag  = 0x20000000
	wkbTypeMask  = 0x000000ff
	wkbTypePoint = 1
)

// ParseLocation decodes a stored location value into a point.
//
// Accepted encodings, tried in order: "(a,b)", "POINT(a b)",
// "SRID=n;POINT(a b [z [m]])", "a,b", a GeoJSON Point and hex (E)WKB with an
// optional "\x" prefix. The textual pairs are read as (lon, lat) first and
// flipped when that assignment is out of range.
func ParseLocation(text string) LocationResult {
	if text == "" {
		return LocationResult{Warning: LocationMissing}
	}

	trimmed := strings.TrimSpace(text)
	if len(trimmed) >= 2 {
		first, last := trimmed[0], trimmed[len(trimmed)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			trimmed = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
		}
	}

	for _, pattern := range []*regexp.Regexp{pgPointPattern, wktPointPattern, ewktPointPattern, csvPointPattern} {
		m := pattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		if p, ok := pickPoint(parseNumber(m[1]), parseNumber(m[2])); ok {
			return LocationResult{Point: &p}
		}
	}

	if p, ok := parseGeoJSONPoint(trimmed); ok {
		return LocationResult{Point: &p}
	}

	if p, ok := parseWKBPoint(trimmed); ok {
		return LocationResult{Point: &p}
	}

	return LocationResult{Warning: LocationParseFailed}
}

// pickPoint assigns (a, b) as (lon, lat), falling back to (lat, lon).
func pickPoint(a, b float64) (Point, bool) {
	if IsValidLatLon(b, a) {
		return Point{Lat: b, Lon: a}, true
	}
	if IsValidLatLon(a, b) {
		return Point{Lat: a, Lon: b}, true
	}
	return Point{}, false
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

type geoJSONPoint struct {
	Type        string        `json:"type"`
	Coordinates []json.Number `json:"coordinates"`
}

func parseGeoJSONPoint(text string) (Point, bool) {
	var g geoJSONPoint
	if err := json.Unmarshal([]byte(text), &g); err != nil {
		return Point{}, false
	}
	if g.Type != "Point" || len(g.Coordinates) < 2 {
		return Point{}, false
	}

	lon, err := g.Coordinates[0].Float64()
	if err != nil {
		return Point{}, false
	}
	lat, err := g.Coordinates[1].Float64()
	if err != nil {
		return Point{}, false
	}
	if !IsValidLatLon(lat, lon) {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}

// parseWKBPoint reads a hex encoded single point WKB/EWKB payload. Z and M
// ordinates are ignored.
func parseWKBPoint(text string) (Point, bool) {
	if !hexWKBPattern.MatchString(text) {
		return Point{}, false
	}
	raw := strings.TrimPrefix(text, `\x`)
	if len(raw)%2 != 0 {
		return Point{}, false
	}

	buf, err := hex.DecodeString(raw)
	if err != nil || len(buf) < 1+4+16 {
		return Point{}, false
	}

	var order binary.ByteOrder = binary.BigEndian
	if buf[0] == 1 {
		order = binary.LittleEndian
	}

	typeWord := order.Uint32(buf[1:5])
	if typeWord&wkbTypeMask != wkbTypePoint {
		return Point{}, false
	}

	offset := 5
	if typeWord&wkbSRIDFlag != 0 {
		if len(buf) < offset+4+16 {
			return Point{}, false
		}
		offset += 4
	}

	lon := math.Float64frombits(order.Uint64(buf[offset : offset+8]))
	lat := math.Float64frombits(order.Uint64(buf[offset+8 : offset+16]))
	if !IsValidLatLon(lat, lon) {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}
