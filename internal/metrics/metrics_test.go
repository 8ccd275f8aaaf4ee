package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sitewizard "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, outcome(nil))
	assert.Equal(t, OutcomeRejected, outcome(&domain.TransitionError{}))
	assert.Equal(t, OutcomeSuperseded, outcome(&domain.GenerationError{Err: domain.ErrGenerationSuperseded}))
	assert.Equal(t, OutcomeRejected, outcome(&domain.GenerationError{Err: errors.New("boom")}))
	assert.Equal(t, OutcomeError, outcome(errors.New("disk full")))
}

func TestCollector_Hooks(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)
	hooks := c.Hooks()
	ctx := context.Background()

	hooks.OnTransition(ctx, &domain.TransitionEvent{Event: domain.EventStart})
	hooks.OnTransition(ctx, &domain.TransitionEvent{Event: domain.EventStart})
	hooks.OnTransition(ctx, &domain.TransitionEvent{Event: domain.EventConfirm, Err: &domain.TransitionError{}})
	hooks.OnValidation(ctx, &domain.ValidationEvent{TemplateID: "memecoin", Error: domain.FieldError{Field: "coinName", Code: "required"}})
	hooks.OnGenerate(ctx, &domain.GenerationEvent{TemplateID: "nft", Duration: 1500 * time.Millisecond})
	hooks.OnExpire(ctx, "u1")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.events.WithLabelValues("start", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues("confirm", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.validations.WithLabelValues("memecoin", "coinName", "required")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.expired))
	assert.Equal(t, 1, testutil.CollectAndCount(c.generation))
}

func TestCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestCollector_EngineAndHandler(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)

	eng, err := sitewizard.New(sitewizard.WithLifecycleHooks(c.Hooks()))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Start(ctx, "u1")
	require.NoError(t, err)
	_, err = eng.SelectTemplate(ctx, "u1", "memecoin")
	require.NoError(t, err)
	_, err = eng.SubmitField(ctx, "u1", "coinName", "")
	require.Error(t, err)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `sitewizard_events_total{event="select_template",outcome="ok"} 1`), body)
	assert.True(t, strings.Contains(body, `sitewizard_events_total{event="submit_field",outcome="rejected"} 1`), body)
	assert.Contains(t, body, `sitewizard_validation_failures_total{code="required",field="coinName",template="memecoin"} 1`)
}
