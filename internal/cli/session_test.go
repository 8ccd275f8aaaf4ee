package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	sitewizard "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/persistence/middleware"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCommands(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	eng, err := sitewizard.New(sitewizard.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	m := eng.Sessions()

	var out bytes.Buffer
	require.NoError(t, ListSessions(ctx, m, &out))
	assert.Contains(t, out.String(), "No active sessions found.")

	_, err = eng.SelectTemplate(ctx, "alice", "defi")
	require.NoError(t, err)
	_, err = eng.Start(ctx, "bob")
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, ListSessions(ctx, m, &out))
	assert.Contains(t, out.String(), "USER")
	assert.Contains(t, out.String(), "alice")
	assert.Contains(t, out.String(), "defi")
	assert.Contains(t, out.String(), "selecting_template")

	out.Reset()
	require.NoError(t, InspectSession(ctx, m, "alice", nil, &out))
	assert.Contains(t, out.String(), `"user_id": "alice"`)
	assert.Error(t, InspectSession(ctx, m, "carol", nil, &out))

	_, err = eng.SelectTemplate(ctx, "dave", "memecoin")
	require.NoError(t, err)
	_, err = eng.SubmitField(ctx, "dave", "coinName", "DogeMoon")
	require.NoError(t, err)
	require.NoError(t, m.Save(ctx, withField(t, m, "dave", "telegram", "https://t.me/doge")))

	redactor, err := middleware.NewRedactor(middleware.DefaultRedactPatterns)
	require.NoError(t, err)
	out.Reset()
	require.NoError(t, InspectSession(ctx, m, "dave", redactor, &out))
	assert.Contains(t, out.String(), `"telegram": "***"`)
	assert.Contains(t, out.String(), `"coinName": "DogeMoon"`)

	out.Reset()
	require.NoError(t, RemoveSessions(ctx, m, []string{"alice"}, false, &out))
	assert.Contains(t, out.String(), "Removed session 'alice'")

	out.Reset()
	require.NoError(t, SweepSessions(ctx, m, time.Hour, &out))
	assert.Contains(t, out.String(), "Removed 0 idle session(s)")

	require.NoError(t, RemoveSessions(ctx, m, nil, true, &out))
	assert.Contains(t, out.String(), "Removed session 'dave'")
	users, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSessionResetAndImport(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	eng, err := sitewizard.New(sitewizard.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	m := eng.Sessions()

	_, err = eng.SelectTemplate(ctx, "erin", "memecoin")
	require.NoError(t, err)
	_, err = eng.SubmitField(ctx, "erin", "coinName", "PepeMoon")
	require.NoError(t, err)

	var exported bytes.Buffer
	require.NoError(t, InspectSession(ctx, m, "erin", nil, &exported))

	var out bytes.Buffer
	require.NoError(t, ResetSessions(ctx, m, []string{"erin", "frank"}, &out))
	assert.Contains(t, out.String(), "Reset session 'erin'")
	reset, err := m.Load(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, reset.Position.Phase)
	assert.Empty(t, reset.Fields)
	_, err = m.Load(ctx, "frank")
	require.NoError(t, err, "reset creates missing sessions")

	out.Reset()
	require.NoError(t, ImportSession(ctx, m, &exported, &out))
	assert.Contains(t, out.String(), "Imported session 'erin'")
	restored, err := m.Load(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, "memecoin", restored.TemplateID)
	assert.Equal(t, "PepeMoon", restored.Fields["coinName"])
	assert.Equal(t, domain.PhaseCollecting, restored.Position.Phase)

	assert.ErrorContains(t, ImportSession(ctx, m, strings.NewReader(`{"fields":{}}`), &out), "user_id")
	assert.ErrorContains(t, ImportSession(ctx, m, strings.NewReader(`{"user_id":"x","colour":"red"}`), &out), "decoding")
	assert.ErrorContains(t,
		ImportSession(ctx, m, strings.NewReader(`{"user_id":"x","fields":{"telegram":"***"}}`), &out),
		"redacted",
	)
}

func withField(t *testing.T, m *session.Manager, userID, name, value string) *domain.Session {
	t.Helper()
	s, err := m.Load(context.Background(), userID)
	require.NoError(t, err)
	s.Fields[name] = value
	return s
}
