package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"docint/internal/retrieval"
)

func newQueryFixture(t *testing.T, model *fakeModel) (*QueryHandler, *retrieval.Index) {
	t.Helper()
	ix := retrieval.NewIndex()
	if err := ix.EnsureCollection("documents", 2); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	emb := retrieval.NewEmbedder(model, nil, "test-model", 2, 0)
	svc := retrieval.NewQueryService(emb, ix, model, "documents", 10, nil)
	return &QueryHandler{Svc: svc}, ix
}

func postQuery(t *testing.T, body string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func TestQueryRequiresText(t *testing.T) {
	h, _ := newQueryFixture(t, &fakeModel{})
	e := echo.New()

	for _, body := range []string{`{}`, `{"query": "   "}`, `not json`} {
		req, rec := postQuery(t, body)
		c := e.NewContext(req, rec)

		err := h.query(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %v", body, err)
		}
		if he.Message != "Query text required" {
			t.Fatalf("body %q: unexpected message %v", body, he.Message)
		}
	}
}

func TestQueryEmptyIndexReturnsSingleFixedResult(t *testing.T) {
	h, _ := newQueryFixture(t, &fakeModel{})
	e := echo.New()

	req, rec := postQuery(t, `{"query": "what is the total?"}`)
	c := e.NewContext(req, rec)

	if err := h.query(c); err != nil {
		t.Fatalf("query: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(resp.Results))
	}
	if resp.Results[0].Text != retrieval.NoInformationAnswer || resp.Results[0].Score != 0.0 {
		t.Fatalf("unexpected result: %+v", resp.Results[0])
	}
}

func TestQueryAnswersFromIndexedChunks(t *testing.T) {
	model := &fakeModel{}
	h, ix := newQueryFixture(t, model)
	if _, err := ix.Add("documents", retrieval.Chunk{Text: "the total is 42", Vector: []float32{1, 0}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	e := echo.New()

	req, rec := postQuery(t, `{"query": "what is the total?"}`)
	c := e.NewContext(req, rec)

	if err := h.query(c); err != nil {
		t.Fatalf("query: %v", err)
	}

	var resp QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected one result, got %d", len(resp.Results))
	}
	if resp.Results[0].Text != "grounded answer" {
		t.Fatalf("unexpected answer: %q", resp.Results[0].Text)
	}
	if resp.Results[0].Score < 0.999 {
		t.Fatalf("score must be the top similarity, got %v", resp.Results[0].Score)
	}
}
