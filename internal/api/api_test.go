package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/wikigraph/internal/linkservice"
	"github.com/starford/wikigraph/internal/models"
	"github.com/starford/wikigraph/internal/testutil"
)

var sampleNotes = map[string]string{
	"Alpha.md":          "---\ntitle: Alpha\n---\nSee [[Beta]] and [[Nowhere]].",
	"Beta.md":           "# Beta\nBack to [[Alpha#Top|alpha]].",
	"Projects/Gamma.md": "[[Projects/Alpha]]",
	".trash/Old.md":     "[[Alpha]]",
}

// testEnv sets up a temp vault, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (http.Handler, string) {
	t.Helper()
	vaultDir := testutil.WriteVault(t, sampleNotes)
	svc := linkservice.NewService(linkservice.Options{AllowedRoots: []string{vaultDir}}, nil)
	return NewRouter(svc, authToken != "", authToken, nil), vaultDir
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func post(t *testing.T, router http.Handler, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestParseLinks(t *testing.T) {
	router, _ := testEnv(t, "")

	w := post(t, router, "/links/parse", ParseLinksRequest{Content: "x [[Foo#Bar|Baz]] [[Foo]]"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var set models.ReferenceSet
	_ = json.Unmarshal(w.Body.Bytes(), &set)
	if len(set.References) != 2 || len(set.ReferencedNotes) != 1 {
		t.Errorf("set = %+v", set)
	}
	if set.References[0].Span.Start != 2 || set.References[0].Raw != "[[Foo#Bar|Baz]]" {
		t.Errorf("first = %+v", set.References[0])
	}
}

func TestParseLinks_EmptyContent(t *testing.T) {
	router, _ := testEnv(t, "")
	w := post(t, router, "/links/parse", ParseLinksRequest{})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Body.String(); got != "{\"references\":[],\"referenced_notes\":[]}\n" {
		t.Errorf("body = %s", got)
	}
}

func TestParseLinks_InvalidJSON(t *testing.T) {
	router, _ := testEnv(t, "")
	req := httptest.NewRequest(http.MethodPost, "/links/parse", bytes.NewBufferString("{nope"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestResolveLink(t *testing.T) {
	router, vaultDir := testEnv(t, "")

	w := get(t, router, "/links/resolve?target=gamma")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res models.Resolution
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Found || *res.Path != filepath.Join(vaultDir, "Projects", "Gamma.md") {
		t.Errorf("res = %+v", res)
	}

	w = get(t, router, "/links/resolve?target=Old")
	if w.Code != http.StatusOK {
		t.Fatalf("unresolved status = %d, want 200", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"path":null`)) {
		t.Errorf("body = %s, want null path", w.Body.String())
	}
}

func TestResolveLink_MissingTarget(t *testing.T) {
	router, _ := testEnv(t, "")
	if w := get(t, router, "/links/resolve"); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestVaultArgument(t *testing.T) {
	router, vaultDir := testEnv(t, "")

	w := get(t, router, "/tree?vault="+url.QueryEscape(t.TempDir()))
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign vault = %d, want 403", w.Code)
	}
	w = get(t, router, "/tree?vault=relative")
	if w.Code != http.StatusBadRequest {
		t.Errorf("relative vault = %d, want 400", w.Code)
	}
	w = get(t, router, "/tree?vault="+url.QueryEscape(vaultDir))
	if w.Code != http.StatusOK {
		t.Errorf("explicit vault = %d, want 200", w.Code)
	}
}

func TestOutgoingLinks(t *testing.T) {
	router, _ := testEnv(t, "")
	w := post(t, router, "/links/outgoing", OutgoingLinksRequest{Content: "[[Beta]] [[Ghost]] [[Beta]]"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp OutgoingLinksResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Links) != 2 || resp.Links[0].Count != 2 || resp.Links[1].ResolvedPath != nil {
		t.Errorf("links = %+v", resp.Links)
	}
}

func TestBacklinks(t *testing.T) {
	router, _ := testEnv(t, "")
	w := get(t, router, "/backlinks?note=alpha")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp BacklinksResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Backlinks) != 2 {
		t.Fatalf("backlinks = %+v", resp.Backlinks)
	}
	if resp.Backlinks[0].SourceName != "Beta" || resp.Backlinks[1].SourceName != "Gamma" {
		t.Errorf("sources = %+v", resp.Backlinks)
	}

	w = get(t, router, "/backlinks?note=Nobody")
	if !bytes.Contains(w.Body.Bytes(), []byte(`"backlinks":[]`)) {
		t.Errorf("empty backlinks body = %s", w.Body.String())
	}

	if w := get(t, router, "/backlinks"); w.Code != http.StatusBadRequest {
		t.Errorf("missing note = %d, want 400", w.Code)
	}
}

func TestTree(t *testing.T) {
	router, _ := testEnv(t, "")
	w := get(t, router, "/tree")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var tree models.FileTree
	_ = json.Unmarshal(w.Body.Bytes(), &tree)
	if tree.TotalNotes != 3 || tree.TotalFolders != 1 {
		t.Errorf("counts = %d/%d", tree.TotalNotes, tree.TotalFolders)
	}
	if tree.Root[0].Name != "Projects" || tree.Root[1].Name != "Alpha" || tree.Root[2].Name != "Beta" {
		t.Errorf("root = %+v", tree.Root)
	}
}

func TestListNotes(t *testing.T) {
	router, _ := testEnv(t, "")
	w := get(t, router, "/notes")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 3 || len(resp.Notes) != 3 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetNote(t *testing.T) {
	router, _ := testEnv(t, "")
	w := get(t, router, "/notes/Alpha.md")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.RelativePath != "Alpha.md" || note.Title != "Alpha" {
		t.Errorf("note = %+v", note)
	}
	if len(note.Backlinks) != 2 || len(note.Outgoing) != 2 {
		t.Errorf("backlinks = %d, outgoing = %d", len(note.Backlinks), len(note.Outgoing))
	}

	w = get(t, router, "/notes/Projects%2FGamma.md")
	if w.Code != http.StatusOK {
		t.Errorf("encoded path status = %d", w.Code)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	router, _ := testEnv(t, "")
	for _, p := range []string{"/notes/nope.md", "/notes/.trash/Old.md"} {
		if w := get(t, router, p); w.Code != http.StatusNotFound {
			t.Errorf("%s = %d, want 404", p, w.Code)
		}
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")
	if w := get(t, router, "/notes"); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router, _ := testEnv(t, "")
	if w := get(t, router, "/notes"); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	// No token → 401.
	if w := get(t, router, "/events"); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	router := testEnvWithSSE(t, false, "")

	// Disabled mode → should not 401. The SSE handler writes 200 and blocks,
	// so the context is cancelled after a short time.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// testEnvWithSSE creates a router with a dummy SSE handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	svc := linkservice.NewService(linkservice.Options{}, nil)

	// Minimal SSE handler stub: writes headers and blocks until context done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	return NewRouter(svc, authEnabled, token, sseHandler)
}
