package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/optimizer/internal/fixes"
	"github.com/gosight/gosight/optimizer/internal/identity"
	"github.com/gosight/gosight/optimizer/internal/learning"
)

var t0 = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newServer(t *testing.T) (*httptest.Server, *learning.Loop) {
	t.Helper()
	loop := learning.NewLoop(
		identity.NewService(nil, nil, 0),
		fixes.NewMapper(fixes.DefaultRules, nil),
		learning.NewMemoryStore(),
	)
	srv := httptest.NewServer(NewHandler(loop, func() time.Time { return t0 }).Router())
	t.Cleanup(srv.Close)
	return srv, loop
}

func runCycle(t *testing.T, loop *learning.Loop) learning.Cycle {
	t.Helper()
	c, err := loop.RunCycle(context.Background(), "shop", nil, learning.TriggerDecision{Trigger: true}, t0)
	require.NoError(t, err)
	return c
}

func postOutcome(t *testing.T, srv *httptest.Server, id, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/cycles/"+id+"/outcome", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleOutcome(t *testing.T) {
	srv, loop := newServer(t)
	c := runCycle(t, loop)

	resp := postOutcome(t, srv, c.ID, `{"approved": true, "impact": 20}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out OutcomeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, c.ID, out.Cycle.ID)
	require.NotNil(t, out.Cycle.Outcome)
	assert.Equal(t, 20.0, out.Cycle.Outcome.Impact)
	assert.Equal(t, 1, out.Record.TimesApproved)
	assert.Equal(t, c.Identity.State, out.Record.State)

	// a second outcome for the same cycle conflicts
	resp = postOutcome(t, srv, c.ID, `{"approved": false}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandleOutcome_BadRequests(t *testing.T) {
	srv, loop := newServer(t)
	c := runCycle(t, loop)

	assert.Equal(t, http.StatusNotFound, postOutcome(t, srv, "missing", `{"approved": true}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, postOutcome(t, srv, c.ID, `{not json`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, postOutcome(t, srv, c.ID, `{"impact": 3}`).StatusCode)

	// rejected requests leave the cycle open
	assert.Equal(t, http.StatusOK, postOutcome(t, srv, c.ID, `{"approved": false}`).StatusCode)
}

type brokenLoop struct{ *learning.Loop }

func (brokenLoop) RecordOutcome(context.Context, string, bool, float64, time.Time) (learning.Cycle, learning.Record, error) {
	return learning.Cycle{}, learning.Record{}, errors.New("redis down")
}

func (brokenLoop) Records(context.Context) ([]learning.Record, error) {
	return nil, errors.New("redis down")
}

func TestHandler_StoreErrors(t *testing.T) {
	_, loop := newServer(t)
	srv := httptest.NewServer(NewHandler(brokenLoop{loop}, nil).Router())
	defer srv.Close()

	assert.Equal(t, http.StatusInternalServerError, postOutcome(t, srv, "any", `{"approved": true}`).StatusCode)

	resp, err := http.Get(srv.URL + "/v1/learning")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHandleCycles(t *testing.T) {
	srv, loop := newServer(t)
	first := runCycle(t, loop)
	second := runCycle(t, loop)

	var list struct {
		Cycles []learning.Cycle `json:"cycles"`
	}
	resp, err := http.Get(srv.URL + "/v1/cycles?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Cycles, 1)
	assert.Equal(t, second.ID, list.Cycles[0].ID)

	bad, err := http.Get(srv.URL + "/v1/cycles?limit=abc")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	one, err := http.Get(srv.URL + "/v1/cycles/" + first.ID)
	require.NoError(t, err)
	defer one.Body.Close()
	require.Equal(t, http.StatusOK, one.StatusCode)
	var got learning.Cycle
	require.NoError(t, json.NewDecoder(one.Body).Decode(&got))
	assert.Equal(t, first.ID, got.ID)

	missing, err := http.Get(srv.URL + "/v1/cycles/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestHandleLearningAndHealth(t *testing.T) {
	srv, loop := newServer(t)
	c := runCycle(t, loop)
	postOutcome(t, srv, c.ID, `{"approved": true, "impact": 10}`)

	resp, err := http.Get(srv.URL + "/v1/learning")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Records []learning.Record `json:"records"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Records, 1)
	assert.Equal(t, 1, body.Records[0].TimesApplied)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestHandleStats(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/v1/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	loop := learning.NewLoop(identity.NewService(nil, nil, 0), fixes.NewMapper(fixes.DefaultRules, nil), learning.NewMemoryStore())
	h := NewHandler(loop, nil).WithStats(func() interface{} {
		return map[string]uint64{"processed": 12, "rejected": 1}
	})
	withStats := httptest.NewServer(h.Router())
	defer withStats.Close()

	resp, err = http.Get(withStats.URL + "/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]uint64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, uint64(12), body["processed"])
	assert.Equal(t, uint64(1), body["rejected"])
}
