package flow_test

import (
	"testing"
	"time"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/flow"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newMachine() *flow.Machine {
	return flow.New(templates.MustBuiltin(), flow.WithClock(func() time.Time { return epoch }))
}

// memecoinAnswers answers every memecoin field in step order.
var memecoinAnswers = []struct{ field, value string }{
	{"coinName", "FlokiElonMoon"},
	{"slogan", "Much wow"},
	{"description", "skip"},
	{"logoUrl", "https://example.com/logo.png"},
	{"theme", "Neon"},
	{"primaryColor", "skip"},
	{"secondaryColor", "#0f0"},
	{"accentColor", ""},
	{"telegram", "t.me/floki"},
	{"twitter", "skip"},
	{"discord", "skip"},
	{"medium", "skip"},
	{"github", "github.com/floki"},
	{"customLink", "Reddit: reddit.com/r/floki"},
	{"totalSupply", "1,000,000"},
	{"buyTax", "2%"},
	{"sellTax", "skip"},
	{"burnTax", "1"},
	{"redistributionTax", "skip"},
	{"distribution", "Liquidity: 60 %, Team:10%"},
	{"roadmap", "Launch\nList\nMoon"},
	{"sectionsOrder", "Header, About, Roadmap, Tokenomics, Community, FAQ"},
}

func apply(t *testing.T, m *flow.Machine, s *domain.Session, ev domain.Event) *domain.Session {
	t.Helper()
	next, err := m.Apply(s, ev)
	require.NoError(t, err, "event %+v in phase %s", ev, s.Position.Phase)
	return next
}

func submit(field, value string) domain.Event {
	return domain.Event{Type: domain.EventSubmitField, Field: field, Value: value}
}

// reviewing walks a fresh session through every memecoin step.
func reviewing(t *testing.T, m *flow.Machine) *domain.Session {
	t.Helper()
	s := domain.NewSession("u1", epoch)
	s = apply(t, m, s, domain.Event{Type: domain.EventSelectTemplate, TemplateID: "memecoin"})
	for _, a := range memecoinAnswers {
		s = apply(t, m, s, submit(a.field, a.value))
	}
	require.Equal(t, domain.PhaseReviewing, s.Position.Phase)
	return s
}

func TestScenarioA_HappyPath(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("u1", epoch)

	s = apply(t, m, s, domain.Event{Type: domain.EventStart})
	assert.Equal(t, domain.PhaseSelectingTemplate, s.Position.Phase)
	assert.Len(t, m.Prompt(s).Templates, 3)

	s = apply(t, m, s, domain.Event{Type: domain.EventSelectTemplate, TemplateID: "memecoin"})
	assert.Equal(t, domain.Position{Phase: domain.PhaseCollecting, Step: 0}, s.Position)

	s = apply(t, m, s, submit("coinName", "FlokiElonMoon"))
	assert.Equal(t, 1, s.Position.Step)
	assert.Equal(t, []int{0}, s.History)

	for _, a := range memecoinAnswers[1:] {
		s = apply(t, m, s, submit(a.field, a.value))
	}
	assert.Equal(t, domain.PhaseReviewing, s.Position.Phase)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, s.History)

	want := map[string]string{
		"coinName":          "FlokiElonMoon",
		"slogan":            "Much wow",
		"description":       "",
		"logoUrl":           "https://example.com/logo.png",
		"theme":             "neon",
		"primaryColor":      "",
		"secondaryColor":    "#00FF00",
		"accentColor":       "",
		"telegram":          "https://t.me/floki",
		"twitter":           "",
		"discord":           "",
		"medium":            "",
		"github":            "https://github.com/floki",
		"customLink":        "Reddit:https://reddit.com/r/floki",
		"totalSupply":       "1000000",
		"buyTax":            "2",
		"sellTax":           "0",
		"burnTax":           "1",
		"redistributionTax": "0",
		"distribution":      "Liquidity:60%, Team:10%",
		"roadmap":           "Launch\nList\nMoon",
		"sectionsOrder":     "header,about,roadmap,tokenomics,community,faq",
	}
	if diff := cmp.Diff(want, s.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	s = apply(t, m, s, domain.Event{Type: domain.EventConfirm})
	assert.True(t, s.Confirmed)
	assert.Equal(t, domain.PhaseConfirmed, s.Position.Phase)

	s = apply(t, m, s, domain.Event{Type: domain.EventGenerate, Attempt: "att-1"})
	assert.Equal(t, "att-1", s.PendingGeneration)
	assert.True(t, m.Prompt(s).Pending)

	s, err := m.CompleteGeneration(s, "att-1", &domain.Artifact{ID: "site-1", TemplateID: "memecoin", SiteHash: "abc"})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseGenerated, s.Position.Phase)
	require.NotNil(t, s.Artifact)
	assert.Equal(t, "site-1", s.Artifact.ID)
	assert.Empty(t, s.PendingGeneration)

	p := m.Prompt(s)
	assert.Equal(t, flow.PromptArtifact, p.Kind)
	assert.Equal(t, "site-1", p.Artifact.ID)
}

func TestScenarioB_InvalidFieldKeepsStep(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("u1", epoch)
	s = apply(t, m, s, domain.Event{Type: domain.EventSelectTemplate, TemplateID: "memecoin"})
	for _, a := range memecoinAnswers[:3] {
		s = apply(t, m, s, submit(a.field, a.value))
	}
	require.Equal(t, 3, s.Position.Step)
	before := s.Snapshot()

	next, err := m.Apply(s, submit("logoUrl", "not-a-url"))
	assert.Nil(t, next)
	assert.ErrorIs(t, err, domain.ErrFieldValidation)

	var fve *domain.FieldValidationError
	require.ErrorAs(t, err, &fve)
	assert.Equal(t, "logoUrl", fve.Field)
	assert.Equal(t, "invalid_url", fve.Code)

	if diff := cmp.Diff(before, s); diff != "" {
		t.Errorf("input session mutated (-before +after):\n%s", diff)
	}
}

func TestScenarioC_EditReturnsToReview(t *testing.T) {
	m := newMachine()
	s := reviewing(t, m)
	history := append([]int(nil), s.History...)

	s = apply(t, m, s, domain.Event{Type: domain.EventEditField, Field: "slogan"})
	assert.Equal(t, domain.Position{Phase: domain.PhaseCollecting, Step: 1, Editing: "slogan"}, s.Position)
	assert.Equal(t, "slogan", m.Prompt(s).Step.Editing)

	s = apply(t, m, s, submit("slogan", "To the moon"))
	assert.Equal(t, domain.Position{Phase: domain.PhaseReviewing}, s.Position)
	assert.Equal(t, "To the moon", s.Fields["slogan"])
	assert.Equal(t, history, s.History, "history must not gain duplicates")

	count := 0
	for _, h := range s.History {
		if h == 1 {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestScenarioD_ResetFromGenerated(t *testing.T) {
	m := newMachine()
	s := reviewing(t, m)
	s = apply(t, m, s, domain.Event{Type: domain.EventConfirm})
	s = apply(t, m, s, domain.Event{Type: domain.EventGenerate, Attempt: "a"})
	s, err := m.CompleteGeneration(s, "a", &domain.Artifact{ID: "x"})
	require.NoError(t, err)

	s = apply(t, m, s, domain.Event{Type: domain.EventReset})
	assert.Equal(t, domain.PhaseIdle, s.Position.Phase)
	assert.Empty(t, s.TemplateID)
	assert.Empty(t, s.Fields)
	assert.Empty(t, s.History)
	assert.False(t, s.Confirmed)
	assert.Nil(t, s.Artifact)

	again := apply(t, m, s, domain.Event{Type: domain.EventReset})
	assert.Equal(t, s, again, "reset is idempotent")
}

func TestSelectTemplate(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("u1", epoch)

	_, err := m.Apply(s, domain.Event{Type: domain.EventSelectTemplate, TemplateID: "casino"})
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)

	s = apply(t, m, s, domain.Event{Type: domain.EventSelectTemplate, TemplateID: "defi"})
	_, err = m.Apply(s, domain.Event{Type: domain.EventSelectTemplate, TemplateID: "nft"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "template is immutable until reset")
}

func TestSubmitField_Unexpected(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("u1", epoch)
	s = apply(t, m, s, domain.Event{Type: domain.EventSelectTemplate, TemplateID: "memecoin"})
	s = apply(t, m, s, submit("coinName", "Floki"))

	_, err := m.Apply(s, submit("collectionName", "Apes"))
	assert.ErrorIs(t, err, domain.ErrUnexpectedField, "undeclared field")

	_, err = m.Apply(s, submit("theme", "dark"))
	assert.ErrorIs(t, err, domain.ErrUnexpectedField, "future step")

	_, err = m.Apply(s, submit("coinName", "Other"))
	assert.ErrorIs(t, err, domain.ErrUnexpectedField, "passed step without edit")
}

func TestSubmitField_RequiredCannotBeSkipped(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("u1", epoch)
	s = apply(t, m, s, domain.Event{Type: domain.EventSelectTemplate, TemplateID: "memecoin"})

	_, err := m.Apply(s, submit("coinName", "skip"))
	var fve *domain.FieldValidationError
	require.ErrorAs(t, err, &fve)
	assert.Equal(t, "required", fve.Code)
}

func TestMultiFieldStepWaitsForAllFields(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("u1", epoch)
	s = apply(t, m, s, domain.Event{Type: domain.EventSelectTemplate, TemplateID: "defi"})
	s = apply(t, m, s, submit("platformName", "YieldHub"))

	s = apply(t, m, s, submit("tokenSymbol", "$yld"))
	assert.Equal(t, 1, s.Position.Step, "stays until every field is answered")
	assert.Equal(t, []int{0}, s.History)

	next := m.Prompt(s).Step.Next()
	require.Len(t, next, 1)
	assert.Equal(t, "tokenName", next[0].Name)

	s = apply(t, m, s, submit("tokenName", "Yield"))
	assert.Equal(t, 2, s.Position.Step)
	assert.Equal(t, []int{0, 1}, s.History)
	assert.Equal(t, "YLD", s.Fields["tokenSymbol"])
}

func TestEditField(t *testing.T) {
	m := newMachine()

	t.Run("not completed", func(t *testing.T) {
		s := domain.NewSession("u1", epoch)
		s = apply(t, m, s, domain.Event{Type: domain.EventSelectTemplate, TemplateID: "memecoin"})
		_, err := m.Apply(s, domain.Event{Type: domain.EventEditField, Field: "coinName"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "edit only from review")
	})

	t.Run("unknown field", func(t *testing.T) {
		s := reviewing(t, m)
		_, err := m.Apply(s, domain.Event{Type: domain.EventEditField, Field: "website"})
		assert.ErrorIs(t, err, domain.ErrFieldNotEditable)
	})

	t.Run("from generated clears confirmation", func(t *testing.T) {
		s := reviewing(t, m)
		s = apply(t, m, s, domain.Event{Type: domain.EventConfirm})
		s = apply(t, m, s, domain.Event{Type: domain.EventGenerate, Attempt: "a"})
		s, err := m.CompleteGeneration(s, "a", &domain.Artifact{ID: "old"})
		require.NoError(t, err)

		s = apply(t, m, s, domain.Event{Type: domain.EventEditField, Field: "theme"})
		assert.False(t, s.Confirmed)
		require.NotNil(t, s.Artifact, "previous artifact is kept until regenerated")

		_, err = m.Apply(s, domain.Event{Type: domain.EventGenerate, Attempt: "b"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("other fields of the step during edit", func(t *testing.T) {
		s := reviewing(t, m)
		s = apply(t, m, s, domain.Event{Type: domain.EventEditField, Field: "accentColor"})
		s = apply(t, m, s, submit("primaryColor", "#123"))
		assert.Equal(t, "accentColor", s.Position.Editing, "still editing")
		s = apply(t, m, s, submit("accentColor", "#abc"))
		assert.Equal(t, domain.PhaseReviewing, s.Position.Phase)
		assert.Equal(t, "#112233", s.Fields["primaryColor"])
		assert.Equal(t, "#AABBCC", s.Fields["accentColor"])
	})
}

func TestConfirm_ReportsEveryInvalidField(t *testing.T) {
	m := newMachine()
	s := reviewing(t, m)
	s.Fields["slogan"] = ""
	s.Fields["logoUrl"] = "nope"

	_, err := m.Apply(s, domain.Event{Type: domain.EventConfirm})
	require.ErrorIs(t, err, domain.ErrSessionValidation)
	errs := domain.FieldErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "slogan", errs[0].Field)
	assert.Equal(t, "logoUrl", errs[1].Field)
}

func TestGeneration(t *testing.T) {
	m := newMachine()
	confirmed := apply(t, m, reviewing(t, m), domain.Event{Type: domain.EventConfirm})

	t.Run("superseded", func(t *testing.T) {
		s := apply(t, m, confirmed, domain.Event{Type: domain.EventGenerate, Attempt: "first"})
		s = apply(t, m, s, domain.Event{Type: domain.EventGenerate, Attempt: "second"})

		_, err := m.CompleteGeneration(s, "first", &domain.Artifact{ID: "late"})
		assert.ErrorIs(t, err, domain.ErrGeneration)
		assert.ErrorIs(t, err, domain.ErrGenerationSuperseded)

		assert.Nil(t, m.FailGeneration(s, "first"), "stale failure is ignored")
		cleared := m.FailGeneration(s, "second")
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.PendingGeneration)
		assert.Equal(t, domain.PhaseConfirmed, cleared.Position.Phase, "retry stays possible")
	})

	t.Run("not confirmed", func(t *testing.T) {
		_, err := m.Apply(reviewing(t, m), domain.Event{Type: domain.EventGenerate, Attempt: "x"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("regenerate", func(t *testing.T) {
		s := apply(t, m, confirmed, domain.Event{Type: domain.EventGenerate, Attempt: "1"})
		s, err := m.CompleteGeneration(s, "1", &domain.Artifact{ID: "v1"})
		require.NoError(t, err)
		require.Equal(t, domain.PhaseGenerated, s.Position.Phase)

		_, err = m.Apply(s, domain.Event{Type: domain.EventGenerate, Attempt: "2"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "generated sites go back through review")

		s = apply(t, m, s, domain.Event{Type: domain.EventEditField, Field: "coinName"})
		s = apply(t, m, s, submit("coinName", "Doge Two"))
		s = apply(t, m, s, domain.Event{Type: domain.EventConfirm})
		s = apply(t, m, s, domain.Event{Type: domain.EventGenerate, Attempt: "2"})
		s, err = m.CompleteGeneration(s, "2", &domain.Artifact{ID: "v2"})
		require.NoError(t, err)
		assert.Equal(t, "v2", s.Artifact.ID)
	})
}

func TestInvalidTransitions(t *testing.T) {
	m := newMachine()
	idle := domain.NewSession("u1", epoch)

	for _, ev := range []domain.Event{
		submit("coinName", "x"),
		{Type: domain.EventEditField, Field: "coinName"},
		{Type: domain.EventConfirm},
		{Type: domain.EventGenerate, Attempt: "a"},
		{Type: "teleport"},
	} {
		_, err := m.Apply(idle, ev)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "event %s", ev.Type)
	}

	s := reviewing(t, m)
	_, err := m.Apply(s, domain.Event{Type: domain.EventStart})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// Fields never hold keys the template does not declare, whatever the input.
func TestFieldsStayDeclared(t *testing.T) {
	m := newMachine()
	def, err := templates.MustBuiltin().Get("memecoin")
	require.NoError(t, err)

	s := domain.NewSession("u1", epoch)
	s = apply(t, m, s, domain.Event{Type: domain.EventSelectTemplate, TemplateID: "memecoin"})
	inputs := []domain.Event{
		submit("hack", "1"), submit("coinName", "A"), submit("", ""), submit("slogan", "<b></b>"),
		submit("slogan", "ok"), submit("../x", "y"), submit("description", "skip"),
	}
	for _, ev := range inputs {
		if next, err := m.Apply(s, ev); err == nil {
			s = next
		}
		for k := range s.Fields {
			assert.True(t, def.Declares(k), "undeclared key %q", k)
		}
	}
	assert.Equal(t, 3, s.Position.Step)
}
