// Package team defines the team reference shared by the scheduler, the
// standings engine and their callers.
package team

// Ref identifies a team. The scheduler only cares about Token; the standings
// engine keys rows by ID and breaks final ties on Name.
type Ref struct {
	ID   string `json:"id" yaml:"id" msgpack:"id"`
	Name string `json:"name" yaml:"name" msgpack:"name"`
}

// Token returns the ID when set, otherwise the Name.
func (r Ref) Token() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Name
}

// Label returns the display name, falling back to the ID.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Names builds refs from bare names, which is how config files list teams.
func Names(names ...string) []Ref {
	refs := make([]Ref, len(names))
	for i, n := range names {
		refs[i] = Ref{Name: n}
	}
	return refs
}
