package standings

// Season states reported by Progress.
const (
	SeasonUpcoming  = "upcoming"
	SeasonOngoing   = "ongoing"
	SeasonCompleted = "completed"
)

// Progress counts how far a season has been played.
type Progress struct {
	Total     int    `json:"total" yaml:"total" msgpack:"total"`
	Completed int    `json:"completed" yaml:"completed" msgpack:"completed"`
	Status    string `json:"status" yaml:"status" msgpack:"status"`
}

// SeasonProgress is upcoming until a match completes and completed once
// every match has.
func SeasonProgress(matches []Match) Progress {
	p := Progress{Total: len(matches)}
	for _, m := range matches {
		if m.Status == StatusCompleted {
			p.Completed++
		}
	}
	switch {
	case p.Completed == 0:
		p.Status = SeasonUpcoming
	case p.Completed == p.Total:
		p.Status = SeasonCompleted
	default:
		p.Status = SeasonOngoing
	}
	return p
}
