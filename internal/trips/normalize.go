package trips

import (
	"cmp"
	"slices"
	"time"

	"github.com/jengzang/fleet-trips-backend-go/internal/models"
	"github.com/jengzang/fleet-trips-backend-go/internal/spatial"
)

// Normalize resolves timing and location for rows read in store order.
//
// GPS timestamps win over server timestamps. Rows whose start or end cannot
// be resolved are dropped. A segment is flagged as a time anomaly when its
// start precedes the previous retained row's start in input order, or when it
// ends before it starts. The result is sorted by (start, end, id).
func Normalize(rows []models.TrackingRow) []models.Segment {
	segments := make([]models.Segment, 0, len(rows))

	var prevStart time.Time
	havePrev := false

	for _, row := range rows {
		firstGPS, firstGPSOK := ParseTimestamp(row.FirstGPSTimestamp)
		lastGPS, lastGPSOK := ParseTimestamp(row.LastGPSTimestamp)
		firstServer, firstServerOK := ParseTimestamp(row.FirstServerTimestamp)
		lastServer, lastServerOK := ParseTimestamp(row.LastServerTimestamp)

		start, startOK := firstGPS, firstGPSOK
		if !startOK {
			start, startOK = firstServer, firstServerOK
		}
		end, endOK := lastGPS, lastGPSOK
		if !endOK {
			end, endOK = lastServer, lastServerOK
		}
		if !startOK || !endOK {
			continue
		}

		anomaly := (havePrev && start.Before(prevStart)) || end.Before(start)

		seg := models.Segment{
			TrackingRow:    row,
			EffectiveStart: start,
			EffectiveEnd:   end,
			DurationSec:    secondsBetween(start, end),
			HasTimeAnomaly: anomaly,
		}
		seg.FirstGPSTimestamp = canonical(firstGPS, firstGPSOK)
		seg.LastGPSTimestamp = canonical(lastGPS, lastGPSOK)
		seg.FirstServerTimestamp = canonical(firstServer, firstServerOK)
		seg.LastServerTimestamp = canonical(lastServer, lastServerOK)

		var text string
		if row.LocationText != nil {
			text = *row.LocationText
		}
		seg.Point = spatial.ParseLocation(text).Point

		segments = append(segments, seg)
		prevStart, havePrev = start, true
	}

	slices.SortStableFunc(segments, func(a, b models.Segment) int {
		if c := a.EffectiveStart.Compare(b.EffectiveStart); c != 0 {
			return c
		}
		if c := a.EffectiveEnd.Compare(b.EffectiveEnd); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return segments
}

func canonical(t time.Time, ok bool) *string {
	if !ok {
		return nil
	}
	s := FormatTimestamp(t)
	return &s
}
