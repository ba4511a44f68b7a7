package models

// DefaultEventType is the event type given to newly added repositories.
const DefaultEventType = "webhook"

// RepositoryEntry is one GitHub repository that can receive a
// repository_dispatch event.
type RepositoryEntry struct {
	Owner     string `json:"owner" yaml:"owner"`
	Repo      string `json:"repo" yaml:"repo"`
	Token     string `json:"github_token" yaml:"github_token"`
	EventType string `json:"event_type" yaml:"event_type"`
}

// Target returns the "owner/repo" pair.
func (e RepositoryEntry) Target() string {
	return e.Owner + "/" + e.Repo
}

// RepositoryList is the ordered list of registered repositories.
type RepositoryList []RepositoryEntry

// Labels returns the "owner/repo" label of each entry by list position.
// Duplicate pairs are kept; callers disambiguate by position.
func (l RepositoryList) Labels() []string {
	labels := make([]string, len(l))
	for i, e := range l {
		labels[i] = e.Target()
	}
	return labels
}

// Index returns the position of the first entry whose target matches
// "owner/repo", or -1.
func (l RepositoryList) Index(target string) int {
	for i, e := range l {
		if e.Target() == target {
			return i
		}
	}
	return -1
}
