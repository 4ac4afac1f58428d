// Package geo implements the delivery-area math: haversine distance,
// distance-based delivery fees, preparation/travel time estimates and
// nearest-base resolution.
package geo

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const earthRadiusKm = 6371

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Base is a fulfillment origin with a bounded delivery radius.
type Base struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Point
	DeliveryRadius float64 `json:"delivery_radius"`
	IsActive       bool    `json:"is_active"`
}

// Fallback labels used when reverse geocoding is unavailable or denied.
const (
	DefaultCity     = "Dar es Salaam"
	DefaultCountry  = "Tanzania"
	DefaultDistrict = "Kinondoni"
	DefaultWard     = "Msasani"
)

// Distance returns the haversine distance between two points in
// kilometers, rounded to 2 decimal places.
func Distance(user, base Point) float64 {
	dLat := toRad(user.Latitude - base.Latitude)
	dLon := toRad(user.Longitude - base.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(base.Latitude))*math.Cos(toRad(user.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	distance := earthRadiusKm * c

	return math.Round(distance*100) / 100
}

func toRad(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}

// DeliveryFee computes the fee for a delivery over the given distance.
// The first 2 km are covered by the base fee; every started kilometer
// beyond that adds the per-km fee. Fee parameters come from the hotel
// settings; callers must fetch them first.
func DeliveryFee(distanceKm float64, baseFee, perKmFee decimal.Decimal) decimal.Decimal {
	if distanceKm <= 2 {
		return baseFee
	}
	extraKm := int64(math.Ceil(distanceKm - 2))
	return baseFee.Add(perKmFee.Mul(decimal.NewFromInt(extraKm)))
}

// EstimatedTime returns a human-readable delivery time range: 20 min
// base preparation plus 5 min per started kilometer, widened by 10 min.
func EstimatedTime(distanceKm float64) string {
	const baseTime = 20
	additionalTime := int(math.Ceil(distanceKm)) * 5
	totalTime := baseTime + additionalTime

	return fmt.Sprintf("%d-%d minutes", totalTime, totalTime+10)
}

// NearestActiveBase resolves the base location serving the user, or nil
// when no active base is in range.
//
// The selection keeps the historical policy: the loop only advances to
// a candidate that is both closer than the running nearest AND within
// its own radius, but the seed candidate (first active base) is taken
// unconditionally. A farther in-radius base therefore does not rescue a
// nearest-but-out-of-radius seed. Kept as-is, not "fixed".
func NearestActiveBase(user Point, bases []Base) *Base {
	active := make([]Base, 0, len(bases))
	for _, b := range bases {
		if b.IsActive {
			active = append(active, b)
		}
	}
	if len(active) == 0 {
		return nil
	}

	nearest := active[0]
	shortest := Distance(user, nearest.Point)

	for _, b := range active {
		d := Distance(user, b.Point)
		if d < shortest && d <= b.DeliveryRadius {
			shortest = d
			nearest = b
		}
	}

	if shortest <= nearest.DeliveryRadius {
		return &nearest
	}
	return nil
}

// Quote bundles the resolved delivery parameters for a user location.
type Quote struct {
	Distance      float64         `json:"distance"`
	Fee           decimal.Decimal `json:"fee"`
	EstimatedTime string          `json:"estimated_time"`
	Base          Base            `json:"base_location"`
}

// ResolveQuote computes distance, fee and ETA against the nearest
// active base. Returns nil when the user is outside every service area.
func ResolveQuote(user Point, bases []Base, baseFee, perKmFee decimal.Decimal) *Quote {
	base := NearestActiveBase(user, bases)
	if base == nil {
		return nil
	}
	d := Distance(user, base.Point)
	return &Quote{
		Distance:      d,
		Fee:           DeliveryFee(d, baseFee, perKmFee),
		EstimatedTime: EstimatedTime(d),
		Base:          *base,
	}
}
