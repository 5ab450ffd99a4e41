package types

// ReconcileOutcome tags the per-subscription result of a reconciliation
// pass. Drift is expected input, not an error: a drifted subscription that
// was corrected is FIXED, not failed.
type ReconcileOutcome string

const (
	ReconcileOutcomeFixed   ReconcileOutcome = "FIXED"
	ReconcileOutcomeCorrect ReconcileOutcome = "CORRECT"
	ReconcileOutcomeError   ReconcileOutcome = "ERROR"
	ReconcileOutcomeSkipped ReconcileOutcome = "SKIPPED"
)

func (o ReconcileOutcome) String() string {
	return string(o)
}
