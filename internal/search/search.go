// Package search aggregates retailer stock into a per-medicine listing,
// optionally restricted to a radius around the consumer.
package search

import (
	"math"
	"strings"

	"medeasy-api-server/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Point is a position in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Haversine returns the great-circle distance between a and b in km.
func Haversine(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(math.Min(1, h)))
}

// Entry is one stock line of a listing. Medicine is nil when the reference
// could not be resolved.
type Entry struct {
	Medicine *models.Medicine
	Quantity int64
}

// Listing is one retailer with its stock, in roster order.
type Listing struct {
	RetailerID   string
	RetailerName string
	Location     *Point
	Entries      []Entry
}

// Query holds the optional consumer position and filters. RadiusKm <= 0
// disables the radius check.
type Query struct {
	Origin   *Point
	RadiusKm float64
	Text     string
}

type RetailerHit struct {
	RetailerID string   `json:"retailerId"`
	Name       string   `json:"name"`
	Quantity   int64    `json:"quantity"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

type Result struct {
	Key       string          `json:"key"`
	Medicine  models.Medicine `json:"medicine"`
	Retailers []RetailerHit   `json:"retailers"`
}

func matchesText(m *models.Medicine, text string) bool {
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Name), text) ||
		strings.Contains(strings.ToLower(m.Brand), text)
}

// Aggregate groups the roster by normalized medicine name.
//
// Output keeps scan order for both medicines and retailers. The first
// sighting of a medicine key fixes its display fields, and a retailer is
// listed at most once per key (first sighting wins). With an origin,
// retailers farther than RadiusKm are left out and keys with no retailers
// left are dropped; retailers without a location are kept without a distance.
func Aggregate(listings []Listing, q Query) []Result {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	index := make(map[string]int)
	seen := make(map[string]map[string]struct{})
	var out []Result

	for _, l := range listings {
		var dist *float64
		if q.Origin != nil && l.Location != nil {
			d := Haversine(*q.Origin, *l.Location)
			dist = &d
		}
		outside := dist != nil && q.RadiusKm > 0 && *dist > q.RadiusKm

		for _, e := range l.Entries {
			if e.Medicine == nil || !matchesText(e.Medicine, text) {
				continue
			}
			key := models.NormalizeName(e.Medicine.Name)

			i, ok := index[key]
			if !ok {
				i = len(out)
				index[key] = i
				seen[key] = make(map[string]struct{})
				out = append(out, Result{Key: key, Medicine: *e.Medicine, Retailers: []RetailerHit{}})
			}
			if outside {
				continue
			}
			if _, dup := seen[key][l.RetailerID]; dup {
				continue
			}
			seen[key][l.RetailerID] = struct{}{}
			out[i].Retailers = append(out[i].Retailers, RetailerHit{
				RetailerID: l.RetailerID,
				Name:       l.RetailerName,
				Quantity:   e.Quantity,
				DistanceKm: dist,
			})
		}
	}

	if q.Origin == nil {
		if out == nil {
			return []Result{}
		}
		return out
	}
	kept := make([]Result, 0, len(out))
	for _, r := range out {
		if len(r.Retailers) > 0 {
			kept = append(kept, r)
		}
	}
	return kept
}
