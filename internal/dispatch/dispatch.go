// Package dispatch triggers GitHub repository_dispatch events for
// registered repositories and turns every outcome into one user-facing
// message.
package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/go-github/v68/github"
	"github.com/zulandar/hookyard/internal/messaging"
	"github.com/zulandar/hookyard/internal/models"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com/"

	mediaType  = "application/vnd.github+json"
	apiVersion = "2022-11-28"
)

// Opts configures a Dispatcher.
type Opts struct {
	// BaseURL of the GitHub REST API, with trailing slash. Defaults to
	// DefaultBaseURL.
	BaseURL string
	// Transport used for outbound requests. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Dispatcher sends repository_dispatch events. It holds no per-call state.
type Dispatcher struct {
	baseURL   string
	transport http.RoundTripper
}

// New creates a Dispatcher.
func New(opts Opts) *Dispatcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	return &Dispatcher{baseURL: opts.BaseURL, transport: opts.Transport}
}

// Resolve returns the entry at the decimal list position selected.
func Resolve(list models.RepositoryList, selected string) (models.RepositoryEntry, bool) {
	i, err := strconv.Atoi(selected)
	if err != nil || i < 0 || i >= len(list) {
		return models.RepositoryEntry{}, false
	}
	return list[i], true
}

// Trigger dispatches the event for the selected position of list and adds
// exactly one message to sink. An empty or stale selection reports
// NoSelection without any network call. Nothing is retried.
func (d *Dispatcher) Trigger(ctx context.Context, list models.RepositoryList, selected string, sink messaging.Sink) Result {
	var res Result
	if entry, ok := Resolve(list, selected); ok {
		res = d.Send(ctx, entry)
	} else {
		res = Result{Kind: KindNoSelection}
	}
	if sink != nil {
		sink.Add(res.Message())
	}
	return res
}

// Send issues one POST /repos/{owner}/{repo}/dispatches for entry and
// classifies the outcome. It blocks until the response or failure.
func (d *Dispatcher) Send(ctx context.Context, entry models.RepositoryEntry) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Kind: KindUnexpected, Owner: entry.Owner, Repo: entry.Repo, Err: fmt.Errorf("%v", r)}
		}
	}()

	client, err := d.client(entry.Token)
	if err != nil {
		return Result{Kind: KindUnexpected, Owner: entry.Owner, Repo: entry.Repo, Err: err}
	}

	_, _, err = client.Repositories.Dispatch(ctx, entry.Owner, entry.Repo, github.DispatchRequestOptions{
		EventType: entry.EventType,
	})
	return classify(entry, err)
}

// client builds a GitHub client that authenticates with token and sends
// the fixed API headers.
func (d *Dispatcher) client(token string) (*github.Client, error) {
	base, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", d.baseURL, err)
	}
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   &headerTransport{base: d.transport},
		},
	}
	client := github.NewClient(httpClient)
	client.BaseURL = base
	return client, nil
}

// headerTransport pins the Accept and API version headers GitHub documents
// for the dispatches endpoint.
type headerTransport struct {
	base http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Accept", mediaType)
	r.Header.Set("X-GitHub-Api-Version", apiVersion)
	return t.base.RoundTrip(r)
}
