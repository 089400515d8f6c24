package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techcorp/helpdesk/internal/models"
	"github.com/techcorp/helpdesk/server"
)

type fakeRetriever struct {
	results      []models.RetrievedChunk
	called       bool
	lastQuery    string
	lastTopK     int
	lastCategory string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int, category string) []models.RetrievedChunk {
	f.called = true
	f.lastQuery = query
	f.lastTopK = topK
	f.lastCategory = category
	return f.results
}

type fakeComposer struct {
	answer       string
	err          error
	lastQuestion string
	lastChunks   []string
	lastCats     []models.Category
}

func (f *fakeComposer) Compose(ctx context.Context, question string, contextChunks []string, categories []models.Category) (string, error) {
	f.lastQuestion = question
	f.lastChunks = contextChunks
	f.lastCats = categories
	return f.answer, f.err
}

func postChat(t *testing.T, handler http.Handler, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatEmptyQuestionRejected(t *testing.T) {
	ret := &fakeRetriever{}
	srv := server.New(server.Config{}, ret, &fakeComposer{}, nil)

	rec := postChat(t, srv.Handler(), "/chat", `{"question": "   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// Validation happens before any retrieval work
	assert.False(t, ret.called)
}

func TestChatRejectsGet(t *testing.T) {
	srv := server.New(server.Config{}, &fakeRetriever{}, &fakeComposer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChatHappyPath(t *testing.T) {
	ret := &fakeRetriever{results: []models.RetrievedChunk{
		{Text: "To reset your password, visit https://reset.techcorp.com.", Meta: map[string]interface{}{"parent_id": "password_reset_troubleshoot_v1"}},
		{Text: "Contact support@techcorp.com if locked out.", Meta: map[string]interface{}{"parent_id": "password_reset_troubleshoot_v1"}},
		{Text: "Password policy overview.", Meta: map[string]interface{}{"parent_id": "password_policy_v1"}},
	}}
	comp := &fakeComposer{answer: "Category: password_reset\n\nResponse:\nVisit https://reset.techcorp.com.\n\nEscalation Required: No"}
	cats := []models.Category{{Key: "password_reset", Description: "Password resets"}}
	srv := server.New(server.Config{}, ret, comp, cats)

	rec := postChat(t, srv.Handler(), "/chat", `{"question": "How do I reset my password?", "top_k": 3}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Contains(t, resp.Answer, "Category:")
	assert.Contains(t, resp.Answer, "Response:")
	assert.Contains(t, resp.Answer, "Escalation Required:")
	assert.Contains(t, resp.Answer, "https://reset.techcorp.com")
	// Sources are deduplicated parent ids in retrieval order
	assert.Equal(t, []string{"password_reset_troubleshoot_v1", "password_policy_v1"}, resp.Sources)

	assert.Equal(t, "How do I reset my password?", ret.lastQuery)
	assert.Equal(t, 3, ret.lastTopK)
	assert.Equal(t, "How do I reset my password?", comp.lastQuestion)
	require.Len(t, comp.lastChunks, 3)
	assert.Equal(t, cats, comp.lastCats)
}

func TestChatDefaultsTopKAndPassesCategory(t *testing.T) {
	ret := &fakeRetriever{}
	srv := server.New(server.Config{}, ret, &fakeComposer{answer: "ok"}, nil)

	rec := postChat(t, srv.Handler(), "/chat", `{"question": "wifi down", "category": "wifi_connection"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ret.lastTopK)
	assert.Equal(t, "wifi_connection", ret.lastCategory)
}

func TestChatHTMLFormat(t *testing.T) {
	comp := &fakeComposer{answer: "Category: x\n\nResponse:\nline one\nline two\n\nEscalation Required: No"}
	srv := server.New(server.Config{}, &fakeRetriever{}, comp, nil)

	rec := postChat(t, srv.Handler(), "/chat?format=html", `{"question": "hello"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "Category: x<br><br>Response:<br>line one<br>line two<br><br>Escalation Required: No", resp.Answer)
}

func TestChatComposerErrorIsServerError(t *testing.T) {
	comp := &fakeComposer{err: fmt.Errorf("model unavailable")}
	srv := server.New(server.Config{}, &fakeRetriever{}, comp, nil)

	rec := postChat(t, srv.Handler(), "/chat", `{"question": "hello"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChatInvalidBody(t *testing.T) {
	srv := server.New(server.Config{}, &fakeRetriever{}, &fakeComposer{}, nil)

	rec := postChat(t, srv.Handler(), "/chat", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := server.New(server.Config{}, &fakeRetriever{}, &fakeComposer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
