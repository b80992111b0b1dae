package geo

import (
	"cmp"
	"slices"
)

// DefaultRadiusMeters is applied to a geofence stored without a radius.
const DefaultRadiusMeters = 120.0

// Geofence is the circular boundary around a job site.
// A zero RadiusMeters means "not set" and resolves to DefaultRadiusMeters.
type Geofence struct {
	CenterLat    float64 `json:"center_lat"`
	CenterLng    float64 `json:"center_lng"`
	RadiusMeters float64 `json:"radius_meters,omitempty"`
}

// Radius returns the effective radius.
func (g Geofence) Radius() float64 {
	if g.RadiusMeters <= 0 {
		return DefaultRadiusMeters
	}
	return g.RadiusMeters
}

// Center returns the geofence center as a point.
func (g Geofence) Center() Point {
	return Point{Lat: g.CenterLat, Lng: g.CenterLng}
}

// NewGeofence builds a geofence from optional site columns. It returns nil when
// either coordinate is missing; such sites can never match a point.
// fallbackRadius replaces an absent radius when it is positive.
func NewGeofence(lat, lng, radius *float64, fallbackRadius float64) *Geofence {
	if lat == nil || lng == nil {
		return nil
	}
	g := &Geofence{CenterLat: *lat, CenterLng: *lng, RadiusMeters: fallbackRadius}
	if radius != nil && *radius > 0 {
		g.RadiusMeters = *radius
	}
	return g
}

// Site is anything with an id that may carry a geofence.
type Site struct {
	ID       string
	Geofence *Geofence
}

// CandidateMatch is a site whose geofence contains the sampled point.
type CandidateMatch struct {
	EntityID       string  `json:"entity_id"`
	DistanceMeters float64 `json:"distance_meters"`
	RadiusMeters   float64 `json:"radius_meters"`
}

// FindCandidates returns every site whose geofence contains p, nearest first.
// The boundary is inclusive. Equal distances are ordered by entity id so the
// result does not depend on the order of sites. Sites without a geofence are
// skipped.
func FindCandidates(p Point, sites []Site) []CandidateMatch {
	var out []CandidateMatch
	for _, s := range sites {
		if s.Geofence == nil {
			continue
		}
		radius := s.Geofence.Radius()
		d := DistanceMeters(p, s.Geofence.Center())
		if d <= radius {
			out = append(out, CandidateMatch{
				EntityID:       s.ID,
				DistanceMeters: d,
				RadiusMeters:   radius,
			})
		}
	}

	slices.SortFunc(out, func(a, b CandidateMatch) int {
		if c := cmp.Compare(a.DistanceMeters, b.DistanceMeters); c != 0 {
			return c
		}
		return cmp.Compare(a.EntityID, b.EntityID)
	})
	return out
}
