package dashboard

import (
	"github.com/zulandar/hookyard/internal/dispatch"
	"github.com/zulandar/hookyard/internal/messaging"
	"github.com/zulandar/hookyard/internal/models"
)

// RepositoryRow is the API view of one persisted entry. The token is
// never included.
type RepositoryRow struct {
	Index     int    `json:"index"`
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	EventType string `json:"event_type"`
}

// RepositoryRows converts the persisted list to API rows by position.
func RepositoryRows(list models.RepositoryList) []RepositoryRow {
	rows := make([]RepositoryRow, len(list))
	for i, e := range list {
		rows[i] = RepositoryRow{Index: i, Owner: e.Owner, Repo: e.Repo, EventType: e.EventType}
	}
	return rows
}

// DispatchRequest is the body of POST /api/dispatches.
type DispatchRequest struct {
	Selection string `json:"selection"`
}

// DispatchResponse reports one trigger outcome.
type DispatchResponse struct {
	Kind    string `json:"kind"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func dispatchResponse(res dispatch.Result, msg messaging.Message) DispatchResponse {
	return DispatchResponse{Kind: res.Kind.String(), OK: res.OK(), Message: msg.Text}
}
