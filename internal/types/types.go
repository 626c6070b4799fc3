package types

import "time"

// Selection is the outcome of a dialog interaction: either a concrete path or
// an explicit cancellation. The zero value is Cancelled.
type Selection struct {
	path string
	ok   bool
}

func Selected(path string) Selection { return Selection{path: path, ok: true} }

func Cancelled() Selection { return Selection{} }

// Path returns the selected path and whether one is present.
func (s Selection) Path() (string, bool) { return s.path, s.ok }

func (s Selection) IsSelected() bool { return s.ok }

func (s Selection) String() string {
	if !s.ok {
		return "<none>"
	}
	return s.path
}

type OpenOptions struct {
	Directory bool
	Multiple  bool
}

type Filter struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

type SaveOptions struct {
	Title   string
	Filters []Filter
}

// Allows reports whether path carries one of the filter extensions. An empty
// filter list allows everything.
func (o SaveOptions) Allows(ext string) bool {
	if len(o.Filters) == 0 {
		return true
	}
	for _, f := range o.Filters {
		for _, e := range f.Extensions {
			if e == ext {
				return true
			}
		}
	}
	return false
}

type Preview struct {
	ImageURL string
	Path     string
}

type Phase string

const (
	PhaseNoInput            Phase = "no-input"
	PhaseInputChosen        Phase = "input-chosen"
	PhaseThumbnailRequested Phase = "thumbnail-requested"
	PhaseThumbnailShown     Phase = "thumbnail-shown"
	PhaseThumbnailFailed    Phase = "thumbnail-failed"
)

// Snapshot is a read-only view of a session.
type Snapshot struct {
	Input      Selection
	Output     Selection
	Phase      Phase
	Preview    Preview
	Dispatches int
	Busy       bool
}

// Ready reports whether both selections hold a path.
func (s Snapshot) Ready() bool { return s.Input.IsSelected() && s.Output.IsSelected() }

type DispatchStatus string

const (
	DispatchRunning   DispatchStatus = "running"
	DispatchSucceeded DispatchStatus = "succeeded"
	DispatchFailed    DispatchStatus = "failed"
)

type Dispatch struct {
	ID         string
	InputPath  string
	OutputPath string
	Status     DispatchStatus
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

func (d Dispatch) Duration() time.Duration {
	if d.FinishedAt.IsZero() || d.StartedAt.IsZero() {
		return 0
	}
	return d.FinishedAt.Sub(d.StartedAt)
}
