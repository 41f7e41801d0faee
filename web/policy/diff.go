package policy

// TrackedFields is the fixed set of user fields eligible for audit
// comparison. Password changes are recorded separately as a presence
// marker, never as values.
var TrackedFields = []string{"name", "email", "role", "active"}

// Change is a single before/after pair in an audit diff.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Diff returns the fields whose values differ between the two snapshots,
// under value equality. Keys present in only one snapshot count as changed.
// Empty input yields empty output.
func Diff(before, after map[string]any) map[string]Change {
	changes := make(map[string]Change)
	for key, oldValue := range before {
		newValue, ok := after[key]
		if !ok {
			changes[key] = Change{From: oldValue, To: nil}
			continue
		}
		if oldValue != newValue {
			changes[key] = Change{From: oldValue, To: newValue}
		}
	}
	for key, newValue := range after {
		if _, ok := before[key]; !ok {
			changes[key] = Change{From: nil, To: newValue}
		}
	}
	return changes
}
