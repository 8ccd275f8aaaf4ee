package middleware_test

import (
	"testing"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactor(t *testing.T) {
	r, err := middleware.NewRedactor(middleware.DefaultRedactPatterns)
	require.NoError(t, err)

	s := session("u1")
	s.Fields["discord"] = ""
	out := r.Redact(s)

	assert.Equal(t, middleware.Mask, out.Fields["telegram"])
	assert.Equal(t, "", out.Fields["discord"], "skipped values stay empty")
	assert.Equal(t, "FlokiElonMoon", out.Fields["coinName"])
	assert.Equal(t, "https://t.me/floki", s.Fields["telegram"], "the original is untouched")
}

func TestNewRedactor_BadPattern(t *testing.T) {
	_, err := middleware.NewRedactor([]string{"("})
	assert.Error(t, err)
}
