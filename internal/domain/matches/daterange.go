package matches

import "time"

// RangesOverlap implements the capacity ledger's overlap rule:
// existing.start <= candidate.end AND existing.end >= candidate.start.
// A missing end on either side collapses that range to the single day
// of its start.
func RangesOverlap(existingStart time.Time, existingEnd *time.Time, candidateStart time.Time, candidateEnd *time.Time) bool {
	ee := existingStart
	if existingEnd != nil {
		ee = *existingEnd
	}
	ce := candidateStart
	if candidateEnd != nil {
		ce = *candidateEnd
	}
	return !existingStart.After(ce) && !ee.Before(candidateStart)
}
