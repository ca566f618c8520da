package lookup

import "context"

// System defines the public contract for experiment lookups.
type System interface {
	Handler(maxBodySize int64) *Handler

	// RecentExperiments lists experiment IDs the service reports as recent,
	// newest first.
	RecentExperiments(ctx context.Context) ([]int, error)
	// Chips lists the chips loaded for one experiment.
	Chips(ctx context.Context, experimentID int) ([]string, error)
	// Libraries maps each chip to its registered library.
	Libraries(ctx context.Context, chips []string) (map[string]string, error)
	// Discover resolves chips and libraries for several experiments
	// concurrently. Results follow the order of ids.
	Discover(ctx context.Context, ids []int) ([]Experiment, error)
}
