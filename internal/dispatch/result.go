package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/google/go-github/v68/github"
	"github.com/zulandar/hookyard/internal/messaging"
	"github.com/zulandar/hookyard/internal/models"
)

// Kind classifies a dispatch outcome.
type Kind int

const (
	KindSuccess Kind = iota
	// KindNoSelection: nothing (or a stale position) was selected; no call made.
	KindNoSelection
	// KindUnauthorized: GitHub answered 401.
	KindUnauthorized
	// KindClientError: any other 4xx answer.
	KindClientError
	// KindTransportError: the request failed below HTTP or the server answered 5xx.
	KindTransportError
	// KindHTTPClientError: the GitHub client failed in any other way.
	KindHTTPClientError
	// KindUnexpected: a failure outside the client call.
	KindUnexpected
)

var kindNames = map[Kind]string{
	KindSuccess:         "success",
	KindNoSelection:     "no_selection",
	KindUnauthorized:    "unauthorized",
	KindClientError:     "client_error",
	KindTransportError:  "transport_error",
	KindHTTPClientError: "http_client_error",
	KindUnexpected:      "unexpected",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Result is the outcome of one trigger.
type Result struct {
	Kind   Kind
	Owner  string
	Repo   string
	Status int   // HTTP status when GitHub answered
	Err    error // underlying cause, nil on success and NoSelection
}

// OK reports whether the dispatch was accepted.
func (r Result) OK() bool { return r.Kind == KindSuccess }

// Target returns "owner/repo".
func (r Result) Target() string { return r.Owner + "/" + r.Repo }

// Message renders the single user-facing message for the outcome.
func (r Result) Message() messaging.Message {
	switch r.Kind {
	case KindSuccess:
		return messaging.Status(fmt.Sprintf("GitHub webhook triggered successfully for %s.", r.Target()))
	case KindNoSelection:
		return messaging.Error("No repository selected. Please select a repository.")
	case KindUnauthorized:
		return messaging.Error(fmt.Sprintf("Failed to trigger GitHub webhook for %s: Unauthorized. Please check your GitHub token.", r.Target()))
	case KindClientError, KindTransportError:
		return messaging.Error(fmt.Sprintf("Failed to trigger GitHub webhook for %s. Error: %s", r.Target(), r.cause()))
	case KindHTTPClientError:
		return messaging.Error(fmt.Sprintf("A general error occurred while trying to trigger GitHub webhook for %s. Error: %s", r.Target(), r.cause()))
	default:
		return messaging.Error(fmt.Sprintf("An unexpected error occurred for %s: %s", r.Target(), r.cause()))
	}
}

func (r Result) cause() string {
	if r.Err == nil {
		return "unknown error"
	}
	return r.Err.Error()
}

// classify maps the error returned by the GitHub client to a Result.
func classify(entry models.RepositoryEntry, err error) Result {
	res := Result{Owner: entry.Owner, Repo: entry.Repo, Err: err}
	if err == nil {
		res.Kind = KindSuccess
		return res
	}

	// 202 Accepted: GitHub queued the event.
	var accepted *github.AcceptedError
	if errors.As(err, &accepted) {
		res.Kind = KindSuccess
		res.Status = http.StatusAccepted
		res.Err = nil
		return res
	}

	if resp := errorResponse(err); resp != nil {
		res.Status = resp.StatusCode
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			res.Kind = KindUnauthorized
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			res.Kind = KindClientError
		default:
			res.Kind = KindTransportError
		}
		return res
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		res.Kind = KindHTTPClientError
		return res
	}

	var netErr net.Error
	if errors.As(err, &netErr) || urlErr != nil ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		res.Kind = KindTransportError
		return res
	}

	res.Kind = KindHTTPClientError
	return res
}

// errorResponse extracts the HTTP response from the GitHub client's
// response-carrying error types.
func errorResponse(err error) *http.Response {
	var er *github.ErrorResponse
	if errors.As(err, &er) {
		return er.Response
	}
	var tfa *github.TwoFactorAuthError
	if errors.As(err, &tfa) {
		return tfa.Response
	}
	var rl *github.RateLimitError
	if errors.As(err, &rl) {
		return rl.Response
	}
	var abuse *github.AbuseRateLimitError
	if errors.As(err, &abuse) {
		return abuse.Response
	}
	return nil
}
