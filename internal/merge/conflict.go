package merge

import (
	"sort"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/trust"
)

// DefaultTrustDifferenceThreshold is the trust gap at or above which the
// hierarchy is considered decisive and no conflict is reported.
const DefaultTrustDifferenceThreshold = 15

// Conflict flags a field where near-trust sources disagreed.
type Conflict struct {
	FieldName         string
	ConflictingValues []FieldValue
	WinnerSource      string
	WinnerValue       any
	TrustDifference   int
	// Severity is 1 - gap/threshold, in [0, 1]; higher means closer trust.
	Severity float64
}

// ConflictDetector finds disputed fields after merging.
type ConflictDetector struct {
	trust     *trust.Hierarchy
	threshold int
}

func NewConflictDetector(h *trust.Hierarchy, threshold int) *ConflictDetector {
	if threshold <= 0 {
		threshold = DefaultTrustDifferenceThreshold
	}
	return &ConflictDetector{trust: h, threshold: threshold}
}

// Detect returns a Conflict when at least two sources supplied differing
// non-null values and the trust gap between the top two was not decisive.
func (d *ConflictDetector) Detect(fieldName string, values []FieldValue, winner Resolved) *Conflict {
	present := filterMissing(values)
	if len(present) < 2 {
		return nil
	}

	allEqual := true
	for _, fv := range present[1:] {
		if !valuesEqual(fv.Value, present[0].Value) {
			allEqual = false
			break
		}
	}
	if allEqual {
		return nil
	}

	sorted := make([]FieldValue, len(present))
	copy(sorted, present)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := d.trust.Trust(sorted[i].Source), d.trust.Trust(sorted[j].Source)
		if ti != tj {
			return ti > tj
		}
		return sorted[i].Confidence > sorted[j].Confidence
	})

	gap := d.trust.Trust(sorted[0].Source) - d.trust.Trust(sorted[1].Source)
	if gap >= d.threshold {
		// The hierarchy was decisive; nothing to surface.
		return nil
	}

	return &Conflict{
		FieldName:         fieldName,
		ConflictingValues: sorted,
		WinnerSource:      winner.Source,
		WinnerValue:       winner.Value,
		TrustDifference:   gap,
		Severity:          1 - float64(gap)/float64(d.threshold),
	}
}
