// Package lookup is the client for the registration service that knows
// which experiments ran recently and which chips and libraries each one
// used. It powers experiment selection in the checklist form.
package lookup

// Chip is one chip loaded for an experiment and the library registered on
// it. Library is empty when the service has none on record.
type Chip struct {
	Name    string `json:"name"`
	Library string `json:"library"`
}

// Experiment is an experiment ID with its chips resolved.
type Experiment struct {
	ID    int    `json:"id"`
	Chips []Chip `json:"chips"`
}

// DiscoverRequest is the body of POST /lookup/discover.
type DiscoverRequest struct {
	ExperimentIDs []int `json:"experiment_ids"`
}
