// Package task defines the result document produced by assimilating a
// completed calculation directory.
package task

// StateSuccessful is the state value of a run that completed successfully.
const StateSuccessful = "successful"

// Document keys the pipeline manipulates. Everything else in the document
// is opaque assimilator output.
const (
	KeyState         = "state"
	KeyTaskID        = "task_id"
	KeyCalcsReversed = "calcs_reversed"
)

// Suffixes appended to an offloaded field name to form its blob reference.
const (
	SuffixStoreID     = "_fs_id"
	SuffixCompression = "_compression"
)

// Document is a nested result document. The assimilator produces it, the
// offloader mutates it in place (it owns exclusive write access for the
// duration of its call), and the persister consumes it.
type Document map[string]any

// State returns the document's state field, or "" when absent.
func (d Document) State() string {
	s, _ := d[KeyState].(string)
	return s
}

// Successful reports whether the document's state is "successful".
func (d Document) Successful() bool {
	return d.State() == StateSuccessful
}

// TaskID returns the document's task_id field, or "" when absent.
func (d Document) TaskID() string {
	s, _ := d[KeyTaskID].(string)
	return s
}

// SetTaskID writes the task_id field.
func (d Document) SetTaskID(id string) {
	d[KeyTaskID] = id
}

// LatestCalc returns the most recent calculation step, i.e. the first
// element of calcs_reversed. ok is false when calcs_reversed is absent,
// empty, or not a sequence of mappings.
func (d Document) LatestCalc() (map[string]any, bool) {
	calcs, ok := d[KeyCalcsReversed].([]any)
	if !ok || len(calcs) == 0 {
		return nil, false
	}
	step, ok := calcs[0].(map[string]any)
	return step, ok
}

// Merge copies the given additional fields into the document, overwriting
// existing keys.
func (d Document) Merge(fields map[string]any) {
	for k, v := range fields {
		d[k] = v
	}
}
