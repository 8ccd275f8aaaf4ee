package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sitewizard "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds"
	api "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/http"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Session *domain.Session     `json:"session"`
	Errors  []domain.FieldError `json:"errors"`
	Prompt  struct {
		Kind string `json:"kind"`
	} `json:"prompt"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	eng, err := sitewizard.New()
	require.NoError(t, err)
	h, err := api.NewHandler(eng, api.WithDeleter(eng.Sessions()))
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path string, payload any) (int, body) {
	t.Helper()
	var reader *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, reader)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return do(t, req)
}

func get(t *testing.T, srv *httptest.Server, path string) (int, body) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (int, body) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var b body
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&b))
	}
	return resp.StatusCode, b
}

type field map[string]string

func TestServer_Walkthrough(t *testing.T) {
	srv := newServer(t)

	status, b := post(t, srv, "/sessions/alice/start", nil)
	require.Equal(t, http.StatusOK, status, b.Error)
	assert.Equal(t, "templates", b.Prompt.Kind)

	status, b = post(t, srv, "/sessions/alice/template", field{"template_id": "nft"})
	require.Equal(t, http.StatusOK, status, b.Error)
	assert.Equal(t, "nft", b.Session.TemplateID)

	for _, f := range []field{
		{"field": "collectionName", "value": "Moon Apes"},
		{"field": "description", "value": "Apes on the moon"},
		{"field": "logoUrl", "value": "https://example.com/apes.png"},
		{"field": "theme", "value": "skip"},
		{"field": "telegram", "value": "skip"},
		{"field": "twitter", "value": "x.com/moonapes"},
		{"field": "discord", "value": "skip"},
		{"field": "nftCount", "value": "skip"},
		{"field": "mintPrice", "value": "0.05"},
		{"field": "maxMint", "value": "5"},
		{"field": "revealDate", "value": "2026-12-01"},
	} {
		status, b = post(t, srv, "/sessions/alice/fields", f)
		require.Equal(t, http.StatusOK, status, "%s: %s", f["field"], b.Error)
	}
	assert.Equal(t, domain.PhaseReviewing, b.Session.Position.Phase)
	assert.Equal(t, "dark", b.Session.Fields["theme"])

	status, b = post(t, srv, "/sessions/alice/confirm", nil)
	require.Equal(t, http.StatusOK, status, b.Error)

	status, b = post(t, srv, "/sessions/alice/generate", nil)
	require.Equal(t, http.StatusOK, status, b.Error)
	require.NotNil(t, b.Session.Artifact)
	assert.Equal(t, "artifact", b.Prompt.Kind)

	status, b = get(t, srv, "/sessions/alice")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.PhaseGenerated, b.Session.Position.Phase)
}

func TestServer_ErrorStatuses(t *testing.T) {
	srv := newServer(t)

	status, b := post(t, srv, "/sessions/bob/fields", field{"field": "coinName", "value": "X"})
	assert.Equal(t, http.StatusGone, status)
	assert.Equal(t, api.CodeSessionExpired, b.Code)

	status, b = post(t, srv, "/sessions/bob/template", field{"template_id": "casino"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, api.CodeNotFound, b.Code)
	require.NotNil(t, b.Session, "rejections still carry the session")
	assert.Equal(t, domain.PhaseIdle, b.Session.Position.Phase)

	status, _ = post(t, srv, "/sessions/bob/template", field{"template_id": "memecoin"})
	require.Equal(t, http.StatusOK, status)

	status, b = post(t, srv, "/sessions/bob/fields", field{"field": "coinName", "value": "skip"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.Len(t, b.Errors, 1)
	assert.Equal(t, "coinName", b.Errors[0].Field)

	status, b = post(t, srv, "/sessions/bob/confirm", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, api.CodeInvalidTransition, b.Code)

	status, b = post(t, srv, "/sessions/bob/template", field{})
	assert.Equal(t, http.StatusBadRequest, status, "template_id is required by the schema")
	assert.Equal(t, api.CodeBadRequest, b.Code)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/bob", nil)
	require.NoError(t, err)
	status, _ = do(t, req)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = get(t, srv, "/sessions/bob")
	assert.Equal(t, http.StatusGone, status)
}

func TestServer_Catalog(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/templates")
	require.NoError(t, err)
	var summaries []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	resp.Body.Close()
	require.Len(t, summaries, 3)
	assert.Equal(t, "memecoin", summaries[0]["id"])

	resp, err = http.Get(srv.URL + "/templates/defi")
	require.NoError(t, err)
	var tmpl struct {
		ID       string `json:"id"`
		StepList []struct {
			ID     string `json:"id"`
			Fields []struct {
				Name string `json:"name"`
				Rule string `json:"rule"`
			} `json:"fields"`
		} `json:"step_list"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tmpl))
	resp.Body.Close()
	assert.Equal(t, "defi", tmpl.ID)
	require.Len(t, tmpl.StepList, 6)
	assert.Equal(t, "ticker", tmpl.StepList[1].Fields[1].Rule)

	status, _ := get(t, srv, "/templates/nope")
	assert.Equal(t, http.StatusNotFound, status)

	resp, err = http.Get(srv.URL + "/themes")
	require.NoError(t, err)
	var themes []map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&themes))
	resp.Body.Close()
	assert.Len(t, themes, 5)
}

func TestServer_Info(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	var info map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, sitewizard.Version, info["version"])
	assert.Equal(t, "1.2.0", info["api_version"])

	spec, err := api.GetSpec()
	require.NoError(t, err)
	assert.NotNil(t, spec.Paths.Find("/sessions/{user}/fields"))
}

func TestServer_SubscribeEvents(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/carol/events?watch=position", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if line := lines.Text(); strings.HasPrefix(line, "data: ") {
				return strings.TrimPrefix(line, "data: ")
			}
		}
		return ""
	}
	require.Equal(t, "connected", next())

	status, _ := post(t, srv, "/sessions/carol/start", nil)
	require.Equal(t, http.StatusOK, status)

	var diff domain.SessionDiff
	require.NoError(t, json.Unmarshal([]byte(next()), &diff))
	assert.Equal(t, "carol", diff.UserID)
	require.NotNil(t, diff.Position)
	assert.Equal(t, domain.PhaseSelectingTemplate, diff.Position.Phase)

	status, _ = post(t, srv, "/sessions/carol/template", field{"template_id": "memecoin"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal([]byte(next()), &diff))
	assert.Equal(t, domain.PhaseCollecting, diff.Position.Phase)
}
