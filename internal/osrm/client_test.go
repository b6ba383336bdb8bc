package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/jengzang/fleet-trips-backend-go/internal/spatial"
)

func writeGeometry(w http.ResponseWriter, key string, coords [][2]float64) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code": "Ok",
		key:    []map[string]interface{}{{"geometry": map[string]interface{}{"type": "LineString", "coordinates": coords}}},
	})
}

// pairFromPath returns the two [lon, lat] points encoded in an OSRM request path
func pairFromPath(t *testing.T, path string) [][2]float64 {
	t.Helper()
	coords := path[strings.LastIndex(path, "/")+1:]
	var out [][2]float64
	for _, part := range strings.Split(coords, ";") {
		var lon, lat float64
		if _, err := fmt.Sscanf(part, "%f,%f", &lon, &lat); err != nil {
			t.Fatalf("bad coordinate %q: %v", part, err)
		}
		out = append(out, [2]float64{lon, lat})
	}
	return out
}

func TestSnapRouteStitchesMatchedPairs(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if !strings.HasPrefix(r.URL.Path, "/match/v1/driving/") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("gaps") != "split" || r.URL.Query().Get("tidy") != "true" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		pair := pairFromPath(t, r.URL.Path)
		mid := [2]float64{(pair[0][0] + pair[1][0]) / 2, (pair[0][1] + pair[1][1]) / 2}
		writeGeometry(w, "matchings", [][2]float64{pair[0], mid, pair[1]})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, time.Minute)
	points := []spatial.Point{
		{Lat: 24.7, Lon: 46.6},
		{Lat: 24.7, Lon: 46.6}, // duplicate, dropped
		{Lat: 24.8, Lon: 46.7},
		{Lat: 95, Lon: 46.7}, // invalid, dropped
		{Lat: 24.9, Lon: 46.8},
	}

	feature, err := client.SnapRoute(context.Background(), points)
	if err != nil {
		t.Fatalf("SnapRoute error: %v", err)
	}
	if feature == nil {
		t.Fatalf("expected feature")
	}

	line := feature.Geometry.(orb.LineString)
	// two pairs of three coordinates sharing one joint
	if len(line) != 5 {
		t.Fatalf("expected 5 stitched coordinates, got %d: %v", len(line), line)
	}
	if line[0] != (orb.Point{46.6, 24.7}) || line[4] != (orb.Point{46.8, 24.9}) {
		t.Fatalf("unexpected endpoints %v", line)
	}
	if feature.Properties["snapMethod"] != SnapMethod || feature.Properties["hadFailures"] != false {
		t.Fatalf("unexpected properties %v", feature.Properties)
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}

	// cached
	if _, err := client.SnapRoute(context.Background(), points); err != nil {
		t.Fatalf("SnapRoute error: %v", err)
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Fatalf("expected cached result, got %d requests", got)
	}
}

func TestSnapRouteFallsBackToRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/match/") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"NoMatch","message":"Could not match the trace."}`))
			return
		}
		if r.URL.Query().Get("steps") != "false" {
			t.Fatalf("unexpected route query %s", r.URL.RawQuery)
		}
		pair := pairFromPath(t, r.URL.Path)
		writeGeometry(w, "routes", [][2]float64{pair[0], {46.65, 24.75}, pair[1]})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 0)
	feature, err := client.SnapRoute(context.Background(), []spatial.Point{{Lat: 24.7, Lon: 46.6}, {Lat: 24.8, Lon: 46.7}})
	if err != nil {
		t.Fatalf("SnapRoute error: %v", err)
	}
	line := feature.Geometry.(orb.LineString)
	if len(line) != 3 || line[1] != (orb.Point{46.65, 24.75}) {
		t.Fatalf("expected routed geometry, got %v", line)
	}
	if feature.Properties["hadFailures"] != false {
		t.Fatalf("route fallback is not a failure")
	}
}

func TestSnapRouteFallsBackToRawSegment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "NoRoute"})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 0)
	feature, err := client.SnapRoute(context.Background(), []spatial.Point{{Lat: 24.7, Lon: 46.6}, {Lat: 24.8, Lon: 46.7}})
	if err != nil {
		t.Fatalf("SnapRoute error: %v", err)
	}
	line := feature.Geometry.(orb.LineString)
	if len(line) != 2 || line[0] != (orb.Point{46.6, 24.7}) || line[1] != (orb.Point{46.7, 24.8}) {
		t.Fatalf("expected straight segment, got %v", line)
	}
	if feature.Properties["hadFailures"] != true {
		t.Fatalf("expected hadFailures")
	}
}

func TestSnapRouteNeedsTwoPoints(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second, 0)
	feature, err := client.SnapRoute(context.Background(), []spatial.Point{
		{Lat: 24.7000001, Lon: 46.6},
		{Lat: 24.7000002, Lon: 46.6}, // same point at 6 decimals
	})
	if err != nil || feature != nil {
		t.Fatalf("expected nil, nil, got %v, %v", feature, err)
	}
}

func TestCacheKeyAndPairFormat(t *testing.T) {
	a := spatial.Point{Lat: 24.7, Lon: 46.6}
	b := spatial.Point{Lat: -1.5, Lon: 2}
	if got := cacheKey([]spatial.Point{a, b}); got != "match-v2|24.700000,46.600000;-1.500000,2.000000" {
		t.Fatalf("unexpected cache key %s", got)
	}
	if got := pairCoords(a, b); got != "46.600000,24.700000;2.000000,-1.500000" {
		t.Fatalf("unexpected pair %s", got)
	}
}
