package ports

import (
	"context"
	"testing"
	"time"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	userID := "contract-user-" + time.Now().Format("20060102150405.000000000")
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(userID, now)
		s.TemplateID = "memecoin"
		s.Position = domain.Position{Phase: domain.PhaseCollecting, Step: 1, Editing: "coinName"}
		s.Fields["coinName"] = "FlokiElonMoon"
		s.Fields["logoUrl"] = ""
		s.History = []int{0}
		s.Revision = 3

		require.NoError(t, store.Save(ctx, s), "Save should not return error")

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.UserID, loaded.UserID)
		assert.Equal(t, s.TemplateID, loaded.TemplateID)
		assert.Equal(t, s.Position, loaded.Position)
		assert.Equal(t, s.Fields, loaded.Fields, "empty values must survive a round trip")
		assert.Equal(t, s.History, loaded.History)
		assert.Equal(t, s.Revision, loaded.Revision)
		assert.True(t, s.LastUpdatedAt.Equal(loaded.LastUpdatedAt))
	})

	t.Run("Loaded copy is detached", func(t *testing.T) {
		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		loaded.Fields["coinName"] = "mutated"

		again, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "FlokiElonMoon", again.Fields["coinName"])
	})

	t.Run("Save overwrites", func(t *testing.T) {
		s := domain.NewSession(userID, now.Add(time.Minute))
		s.Confirmed = true
		s.Artifact = &domain.Artifact{ID: "a1", TemplateID: "memecoin", SiteHash: "abc", RawURL: "file:///tmp/a1"}
		require.NoError(t, store.Save(ctx, s))

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, loaded.TemplateID)
		assert.True(t, loaded.Confirmed)
		require.NotNil(t, loaded.Artifact)
		assert.Equal(t, "a1", loaded.Artifact.ID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewSession(userID, now)))

		require.NoError(t, store.Delete(ctx, userID), "Delete should not return error")

		_, err := store.Load(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, userID), "Delete of a missing session is a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := userID + "-1"
		id2 := userID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewSession(id1, now)))
		require.NoError(t, store.Save(ctx, domain.NewSession(id2, now)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		users, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, users, id1)
		assert.Contains(t, users, id2)
	})
}
