package http

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamManager_PublishesDiffs(t *testing.T) {
	sm := NewStreamManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s := domain.NewSession("u1", time.Now())

	sm.Publish(s) // no subscribers: nothing recorded
	ch, cancel := sm.Subscribe("u1")
	assert.Equal(t, 1, sm.Subscribers("u1"))

	sm.Publish(s)
	first := <-ch
	assert.Contains(t, first, `"phase":"idle"`, "first message carries the whole session")

	sm.Publish(s.Snapshot())
	select {
	case msg := <-ch:
		t.Fatalf("unexpected message for unchanged session: %s", msg)
	default:
	}

	next := s.Snapshot()
	next.Revision++
	next.Fields["coinName"] = "Doge"
	sm.Publish(next)
	msg := <-ch
	assert.Contains(t, msg, `"coinName":"Doge"`)
	assert.NotContains(t, msg, "position")

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("u1"))
	_, open := <-ch
	require.False(t, open)
}

func TestStreamManager_DropsOutOfOrderSessions(t *testing.T) {
	sm := NewStreamManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ch, cancel := sm.Subscribe("u1")
	defer cancel()

	rev1 := domain.NewSession("u1", created)
	rev1.Revision = 1
	rev1.Position = domain.Position{Phase: domain.PhaseSelectingTemplate}
	rev2 := rev1.Snapshot()
	rev2.Revision = 2
	rev2.TemplateID = "memecoin"
	rev2.Position = domain.Position{Phase: domain.PhaseCollecting}

	sm.Publish(rev2)
	assert.Contains(t, <-ch, `"template_id":"memecoin"`)

	sm.Publish(rev1)
	select {
	case msg := <-ch:
		t.Fatalf("older revision was published: %s", msg)
	default:
	}

	rev3 := rev2.Snapshot()
	rev3.Revision = 3
	rev3.Fields["coinName"] = "Doge"
	sm.Publish(rev3)
	msg := <-ch
	assert.Contains(t, msg, `"coinName":"Doge"`)
	assert.NotContains(t, msg, "template_id", "diff is against the newest session")

	t.Run("new session after expiry", func(t *testing.T) {
		fresh := domain.NewSession("u1", created.Add(time.Hour))
		fresh.Revision = 1
		sm.Publish(fresh)
		assert.Contains(t, <-ch, `"phase":"idle"`)

		sm.Publish(rev3)
		select {
		case msg := <-ch:
			t.Fatalf("expired session was published: %s", msg)
		default:
		}
	})

	t.Run("forget", func(t *testing.T) {
		sm.Forget("u1")
		again := domain.NewSession("u1", created)
		sm.Publish(again)
		assert.Contains(t, <-ch, `"phase":"idle"`)
	})
}

func TestMatchesWatch(t *testing.T) {
	fieldsOnly := `{"user_id":"u1","fields":{"slogan":"wow"}}`
	assert.True(t, matchesWatch(fieldsOnly, nil))
	assert.True(t, matchesWatch(fieldsOnly, []string{"position", " fields"}))
	assert.False(t, matchesWatch(fieldsOnly, []string{"position", "artifact"}))
	assert.True(t, matchesWatch(`{"user_id":"u1","appended":[2]}`, []string{"history"}))
	assert.True(t, matchesWatch(`{"user_id":"u1","cleared_artifact":true}`, []string{"artifact"}))
}
