package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/hookyard/internal/dispatch"
	"github.com/zulandar/hookyard/internal/models"
	"github.com/zulandar/hookyard/internal/settings"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.ConfigValue{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

type testServer struct {
	router *gin.Engine
	store  *settings.GormStore
	calls  *atomic.Int32
}

// newTestServer wires the router to an in-memory DB and a fake GitHub API
// answering status.
func newTestServer(t *testing.T, status int, list models.RepositoryList) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var calls atomic.Int32
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(gh.Close)

	db := testDB(t)
	store := settings.NewGormStore(db)
	if list != nil {
		if err := settings.SaveRepositories(context.Background(), store, list); err != nil {
			t.Fatal(err)
		}
	}
	router, err := newRouter(StartOpts{
		DB:         db,
		Dispatcher: dispatch.New(dispatch.Opts{BaseURL: gh.URL + "/"}),
	})
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}
	return &testServer{router: router, store: store, calls: &calls}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testServer) post(form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/settings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *testServer) persisted(t *testing.T) models.RepositoryList {
	t.Helper()
	list, err := settings.LoadRepositories(context.Background(), s.store)
	if err != nil {
		t.Fatal(err)
	}
	return list
}

var buildIDPattern = regexp.MustCompile(`name="form_build_id" value="([^"]+)"`)

func buildID(t *testing.T, body string) string {
	t.Helper()
	m := buildIDPattern.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no form_build_id in body")
	}
	return m[1]
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{DB: nil})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
	if !strings.Contains(err.Error(), "db is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db is required")
	}
}

func TestEmbeddedAssets(t *testing.T) {
	data, err := assetsFS.ReadFile("assets/style.css")
	if err != nil {
		t.Fatalf("style.css not embedded: %v", err)
	}
	if len(data) == 0 {
		t.Error("style.css is empty")
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	data, err := templatesFS.ReadFile("templates/layout.html")
	if err != nil {
		t.Fatalf("layout.html not embedded: %v", err)
	}
	if !strings.Contains(string(data), "Hookyard") {
		t.Error("layout.html does not contain 'Hookyard'")
	}
}

func TestStaticCSS(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, nil)
	w := s.get("/static/style.css")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestIndex_RedirectsToSettings(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, nil)
	w := s.get("/")
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/settings" {
		t.Errorf("Location = %q", loc)
	}
}

func TestGetSettings_Empty(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, nil)
	w := s.get("/settings")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"- Select a repository -", "No repositories configured.", `value="add"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, `name="owner[`) {
		t.Error("empty list rendered a repository row")
	}
}

func TestGetSettings_NeverRendersToken(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, models.RepositoryList{
		{Owner: "acme", Repo: "widgets", Token: "secret-token", EventType: "webhook"},
	})
	body := s.get("/settings").Body.String()
	if strings.Contains(body, "secret-token") {
		t.Error("token leaked into the form")
	}
	for _, want := range []string{"Repository 1", `name="owner[0]" value="acme"`, "Token set", ">acme/widgets<"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestPostSettings_AddThenSave(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, models.RepositoryList{
		{Owner: "acme", Repo: "widgets", Token: "t1", EventType: "webhook"},
	})
	id := buildID(t, s.get("/settings").Body.String())

	w := s.post(url.Values{
		"form_build_id":   {id},
		"owner[0]":        {"acme"},
		"repo[0]":         {"widgets"},
		"github_token[0]": {""},
		"event_type[0]":   {"webhook"},
		"op":              {"add"},
	})
	body := w.Body.String()
	if buildID(t, body) != id {
		t.Error("add started a new session")
	}
	if !strings.Contains(body, "Repository 2") || !strings.Contains(body, `name="owner[1]"`) {
		t.Fatal("added row not rendered")
	}
	if !strings.Contains(body, `name="event_type[1]" value="webhook"`) {
		t.Error("new row missing default event type")
	}
	if n := len(s.persisted(t)); n != 1 {
		t.Errorf("add persisted: %d entries", n)
	}

	w = s.post(url.Values{
		"form_build_id":   {id},
		"owner[0]":        {"acme"},
		"repo[0]":         {"widgets"},
		"github_token[0]": {""},
		"event_type[0]":   {"webhook"},
		"owner[1]":        {"acme"},
		"repo[1]":         {"gadgets"},
		"github_token[1]": {"t2"},
		"event_type[1]":   {"release"},
		"op":              {"save"},
	})
	body = w.Body.String()
	if !strings.Contains(body, savedMessage) {
		t.Error("missing saved message")
	}
	if buildID(t, body) == id {
		t.Error("save kept the old session")
	}

	want := models.RepositoryList{
		{Owner: "acme", Repo: "widgets", Token: "t1", EventType: "webhook"},
		{Owner: "acme", Repo: "gadgets", Token: "t2", EventType: "release"},
	}
	got := s.persisted(t)
	if len(got) != len(want) {
		t.Fatalf("persisted %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if !strings.Contains(body, ">acme/widgets<") || !strings.Contains(body, ">acme/gadgets<") {
		t.Error("options not rebuilt from saved list")
	}
}

func TestPostSettings_RemoveKeepsOtherValues(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, models.RepositoryList{
		{Owner: "acme", Repo: "widgets", Token: "t1", EventType: "webhook"},
		{Owner: "acme", Repo: "gadgets", Token: "t2", EventType: "release"},
	})
	id := buildID(t, s.get("/settings").Body.String())

	form := url.Values{
		"form_build_id": {id},
		"owner[0]":      {"acme"},
		"repo[0]":       {"widgets"},
		"event_type[0]": {"webhook"},
		"owner[1]":      {"acme"},
		"repo[1]":       {"gadgets-edited"},
		"event_type[1]": {"release"},
	}
	form.Set("remove", "0")
	body := s.post(form).Body.String()
	if strings.Contains(body, `name="owner[0]"`) {
		t.Error("removed row still rendered")
	}
	if !strings.Contains(body, `name="repo[1]" value="gadgets-edited"`) {
		t.Error("remaining row lost its edited value")
	}
	if !strings.Contains(body, "Repository 1") || strings.Contains(body, "Repository 2") {
		t.Error("titles not renumbered")
	}

	form.Del("remove")
	form.Del("owner[0]")
	form.Del("repo[0]")
	form.Del("event_type[0]")
	form.Set("op", "save")
	s.post(form)

	got := s.persisted(t)
	if len(got) != 1 || got[0].Repo != "gadgets-edited" || got[0].Token != "t2" {
		t.Errorf("persisted = %+v", got)
	}
}

func TestPostSettings_RemoveAllSavesEmptyList(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, models.RepositoryList{{Owner: "acme", Repo: "widgets"}})
	id := buildID(t, s.get("/settings").Body.String())
	s.post(url.Values{"form_build_id": {id}, "remove": {"0"}})
	s.post(url.Values{"form_build_id": {id}, "op": {"save"}})
	if got := s.persisted(t); len(got) != 0 {
		t.Errorf("persisted = %+v, want empty", got)
	}
}

func TestPostSettings_RemoveUnknownRow(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, nil)
	id := buildID(t, s.get("/settings").Body.String())
	body := s.post(url.Values{"form_build_id": {id}, "remove": {"7"}}).Body.String()
	if !strings.Contains(body, "Unknown repository row.") {
		t.Error("missing unknown row message")
	}
}

func TestPostSettings_ExpiredBuildIDIsRejected(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, models.RepositoryList{
		{Owner: "acme", Repo: "widgets", Token: "t1", EventType: "webhook"},
		{Owner: "acme", Repo: "old", Token: "t0", EventType: "webhook"},
	})

	for _, op := range []string{"add", "save", "trigger"} {
		t.Run(op, func(t *testing.T) {
			body := s.post(url.Values{
				"form_build_id":   {"expired-id"},
				"owner[0]":        {"acme"},
				"repo[0]":         {"widgets"},
				"event_type[0]":   {"webhook"},
				"owner[2]":        {"acme"},
				"repo[2]":         {"gadgets"},
				"github_token[2]": {"t2"},
				"event_type[2]":   {"release"},
				"select_repo":     {"0"},
				"op":              {op},
			}).Body.String()

			if !strings.Contains(body, "The form has become outdated. Please review your changes and save again.") {
				t.Error("missing outdated message")
			}
			if strings.Contains(body, savedMessage) {
				t.Error("outdated form reported as saved")
			}
			if buildID(t, body) == "expired-id" {
				t.Error("unknown build id was reused")
			}
			if got := s.persisted(t); len(got) != 2 || got[1].Repo != "old" {
				t.Errorf("persisted = %+v, want unchanged", got)
			}
			if s.calls.Load() != 0 {
				t.Errorf("calls = %d, want 0", s.calls.Load())
			}
		})
	}
}

func TestPostSettings_SaveAfterConcurrentChangeKeepsTokens(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, models.RepositoryList{
		{Owner: "acme", Repo: "alpha", Token: "tokA", EventType: "webhook"},
		{Owner: "acme", Repo: "beta", Token: "tokB", EventType: "webhook"},
	})
	id := buildID(t, s.get("/settings").Body.String())

	// Another editor saves a shorter list while this form is open.
	if err := settings.SaveRepositories(context.Background(), s.store, models.RepositoryList{
		{Owner: "acme", Repo: "beta", Token: "tokB", EventType: "webhook"},
	}); err != nil {
		t.Fatal(err)
	}

	s.post(url.Values{
		"form_build_id":   {id},
		"owner[0]":        {"acme"},
		"repo[0]":         {"alpha"},
		"github_token[0]": {""},
		"event_type[0]":   {"webhook"},
		"owner[1]":        {"acme"},
		"repo[1]":         {"beta"},
		"github_token[1]": {""},
		"event_type[1]":   {"webhook"},
		"op":              {"save"},
	})

	want := models.RepositoryList{
		{Owner: "acme", Repo: "alpha", Token: "tokA", EventType: "webhook"},
		{Owner: "acme", Repo: "beta", Token: "tokB", EventType: "webhook"},
	}
	got := s.persisted(t)
	if len(got) != len(want) {
		t.Fatalf("persisted = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPostSettings_Trigger(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, models.RepositoryList{
		{Owner: "acme", Repo: "widgets", Token: "t1", EventType: "webhook"},
	})
	id := buildID(t, s.get("/settings").Body.String())

	body := s.post(url.Values{
		"form_build_id": {id},
		"owner[0]":      {"acme"},
		"repo[0]":       {"widgets"},
		"event_type[0]": {"webhook"},
		"select_repo":   {"0"},
		"op":            {"trigger"},
	}).Body.String()

	if s.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", s.calls.Load())
	}
	if !strings.Contains(body, "GitHub webhook triggered successfully for acme/widgets.") {
		t.Error("missing success message")
	}
	if !strings.Contains(body, `<option value="0" selected>`) {
		t.Error("selection not kept")
	}
	if buildID(t, body) != id {
		t.Error("trigger started a new session")
	}
}

func TestPostSettings_TriggerNoSelection(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, models.RepositoryList{{Owner: "acme", Repo: "widgets"}})
	id := buildID(t, s.get("/settings").Body.String())
	body := s.post(url.Values{"form_build_id": {id}, "op": {"trigger"}}).Body.String()
	if !strings.Contains(body, "No repository selected. Please select a repository.") {
		t.Error("missing no selection message")
	}
	if s.calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", s.calls.Load())
	}
}

func TestPostSettings_TriggerUnauthorized(t *testing.T) {
	s := newTestServer(t, http.StatusUnauthorized, models.RepositoryList{{Owner: "acme", Repo: "widgets", Token: "bad"}})
	id := buildID(t, s.get("/settings").Body.String())
	body := s.post(url.Values{"form_build_id": {id}, "select_repo": {"0"}, "op": {"trigger"}}).Body.String()
	if !strings.Contains(body, "Unauthorized. Please check your GitHub token.") {
		t.Error("missing unauthorized message")
	}
	if !strings.Contains(body, "message-error") {
		t.Error("unauthorized not rendered as error")
	}
}

func TestAPI_ListRepositories(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, models.RepositoryList{
		{Owner: "acme", Repo: "widgets", Token: "secret-token", EventType: "webhook"},
	})
	w := s.get("/api/repositories")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret-token") {
		t.Error("token exposed by API")
	}
	var rows []RepositoryRow
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0] != (RepositoryRow{Index: 0, Owner: "acme", Repo: "widgets", EventType: "webhook"}) {
		t.Errorf("rows = %+v", rows)
	}
}

func TestAPI_CreateDispatch(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		selection string
		wantCode  int
		wantKind  string
	}{
		{"success", http.StatusNoContent, "0", http.StatusOK, "success"},
		{"no selection", http.StatusNoContent, "", http.StatusUnprocessableEntity, "no_selection"},
		{"unauthorized", http.StatusUnauthorized, "0", http.StatusUnprocessableEntity, "unauthorized"},
		{"not found", http.StatusNotFound, "0", http.StatusUnprocessableEntity, "client_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.status, models.RepositoryList{{Owner: "acme", Repo: "widgets", Token: "t1", EventType: "webhook"}})
			req := httptest.NewRequest(http.MethodPost, "/api/dispatches", strings.NewReader(`{"selection":"`+tt.selection+`"}`))
			req.Header.Set("Content-Type", "application/json")
			w := s.do(req)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			var resp DispatchResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Kind != tt.wantKind || resp.OK != (tt.wantCode == http.StatusOK) || resp.Message == "" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestAPI_CreateDispatchBadJSON(t *testing.T) {
	s := newTestServer(t, http.StatusNoContent, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/dispatches", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	if w := s.do(req); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
