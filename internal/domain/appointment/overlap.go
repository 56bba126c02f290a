package appointment

import "time"

// Overlaps reports whether an existing booking [existingStart, existingEnd)
// collides with a candidate window [candStart, candEnd). Intervals are
// half-open: a booking ending exactly when the candidate starts does not
// collide.
//
// The three cases mirror the SQL the conflict queries run, so the in-memory
// predicate and the database agree on every boundary:
//
//  1. the candidate starts inside the existing booking
//  2. the candidate ends inside the existing booking
//  3. the candidate contains the existing booking entirely
//
// Together they are equivalent to existingStart < candEnd && candStart < existingEnd.
func Overlaps(existingStart, existingEnd, candStart, candEnd time.Time) bool {
	// Candidate starts inside: existing.start <= cand.start < existing.end
	if !existingStart.After(candStart) && existingEnd.After(candStart) {
		return true
	}
	// Candidate ends inside: existing.start < cand.end <= existing.end
	if existingStart.Before(candEnd) && !existingEnd.Before(candEnd) {
		return true
	}
	// Candidate contains existing: cand.start <= existing.start && existing.end <= cand.end
	if !existingStart.Before(candStart) && !existingEnd.After(candEnd) {
		return true
	}
	return false
}
