package csvdiff

// Sink receives one run's events in emission order: exactly one Schema
// call before any row event, then a monotonically ordered run of row and
// Progress events, then exactly one terminal call (Stats on success, or
// the run's error surfaces from DiffPaths/DiffBytes directly). A Sink may
// impose back-pressure by blocking inside any of its methods.
type Sink interface {
	Schema(columnsA, columnsB []string) error
	Event(e map[string]interface{}) error
	Progress(p Progress) error
	Stats(s Stats) error
}
