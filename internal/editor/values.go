package editor

import (
	"strconv"

	"github.com/zulandar/hookyard/internal/models"
)

// Posted holds the per-row form fields as submitted, keyed by row id string
// (the "3" in owner[3]).
type Posted struct {
	Owner     map[string]string
	Repo      map[string]string
	Token     map[string]string
	EventType map[string]string
}

// Values decodes posted fields into entries by row id. A row is present
// when any of its fields was posted; keys that are not integers are ignored.
func (p Posted) Values() map[int]models.RepositoryEntry {
	values := make(map[int]models.RepositoryEntry)
	for _, m := range []map[string]string{p.Owner, p.Repo, p.Token, p.EventType} {
		for key := range m {
			id, err := strconv.Atoi(key)
			if err != nil || id < 0 {
				continue
			}
			if _, ok := values[id]; ok {
				continue
			}
			values[id] = models.RepositoryEntry{
				Owner:     p.Owner[key],
				Repo:      p.Repo[key],
				Token:     p.Token[key],
				EventType: p.EventType[key],
			}
		}
	}
	return values
}
