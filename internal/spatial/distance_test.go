package spatial

import "testing"

func TestHaversineMeters(t *testing.T) {
	d := HaversineMeters(Point{Lat: 24.7136, Lon: 46.6753}, Point{Lat: 24.7137, Lon: 46.6754})
	if d <= 10 || d >= 20 {
		t.Fatalf("expected distance between 10m and 20m, got %.3f", d)
	}

	if d := HaversineMeters(Point{Lat: 1, Lon: 1}, Point{Lat: 1, Lon: 1}); d != 0 {
		t.Fatalf("expected zero distance for identical points, got %f", d)
	}
}

func TestPathLength(t *testing.T) {
	a := Point{Lat: 24.71, Lon: 46.67}
	b := Point{Lat: 24.72, Lon: 46.68}
	c := Point{Lat: 24.73, Lon: 46.69}

	want := HaversineMeters(a, b) + HaversineMeters(b, c)
	if got := PathLength([]Point{a, b, c}); got != want {
		t.Fatalf("expected %f, got %f", want, got)
	}
	if got := PathLength([]Point{a}); got != 0 {
		t.Fatalf("expected 0 for a single point, got %f", got)
	}
}

func TestBoundingBox(t *testing.T) {
	if BoundingBox(nil) != nil {
		t.Fatalf("expected nil bounds for empty input")
	}

	b := BoundingBox([]Point{{Lat: 24.7, Lon: 46.7}, {Lat: 24.6, Lon: 46.9}, {Lat: 24.8, Lon: 46.8}})
	if b.MinLat != 24.6 || b.MaxLat != 24.8 || b.MinLon != 46.7 || b.MaxLon != 46.9 {
		t.Fatalf("unexpected bounds %+v", *b)
	}
}
