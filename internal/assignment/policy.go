package assignment

import "github.com/fieldline/ops-backend/internal/geo"

// Policy holds the presentation tunables of Resolve.
type Policy struct {
	DisplayLimit int
}

// DefaultPolicy presents at most DefaultDisplayLimit candidates.
var DefaultPolicy = Policy{DisplayLimit: DefaultDisplayLimit}

// Resolve assigns a job from a manual pick and an optional location fix.
//
// A non-empty manualID always wins, even when the fix sits inside another job's
// geofence. Otherwise the fix is matched against sites: no match is Unassigned,
// one match is Assigned, several are a NeedsChoice over the full ranking. With
// no fix the result is Unassigned with ProvenanceUnknown.
func (p Policy) Resolve(manualID string, fix geo.Fix, sites []geo.Site) Decision {
	if manualID != "" {
		return Assigned{EntityID: manualID, Source: ProvenanceManual}
	}

	point, ok := fix.Get()
	if !ok {
		return Unassigned{Source: ProvenanceUnknown}
	}

	candidates := geo.FindCandidates(point, sites)
	switch len(candidates) {
	case 0:
		return Unassigned{Source: ProvenanceGPS}
	case 1:
		return Assigned{EntityID: candidates[0].EntityID, Source: ProvenanceGPS}
	default:
		return NeedsChoice{
			Candidates: candidates,
			Options:    candidateIDs(candidates),
			Limit:      p.DisplayLimit,
			Source:     ProvenanceGPS,
		}
	}
}

// Resolve applies DefaultPolicy.
func Resolve(manualID string, fix geo.Fix, sites []geo.Site) Decision {
	return DefaultPolicy.Resolve(manualID, fix, sites)
}
