package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTray_ToggleInvokesCallback(t *testing.T) {
	tr := New()
	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	assert.Equal(t, []bool{false, true}, got)
	assert.True(t, tr.IsEnabled())
}

func TestTray_SetEnabledSkipsCallback(t *testing.T) {
	tr := New()
	called := false
	tr.OnToggle(func(bool) { called = true })

	tr.SetEnabled(false)

	assert.False(t, tr.IsEnabled())
	assert.False(t, called)
}

func TestTray_CallbacksOutsideMenu(t *testing.T) {
	tr := New()
	clears := 0
	tr.OnClear(func() { clears++ })

	tr.call(func() func() { return tr.onClear })
	tr.call(func() func() { return tr.onOpenBoard })

	assert.Equal(t, 1, clears)
}

func TestTray_LastAction(t *testing.T) {
	tr := New()
	assert.Empty(t, tr.LastAction())

	tr.SetLastAction("heart")

	assert.Equal(t, "heart", tr.LastAction())
	assert.Equal(t, "Last: heart", lastActionTitle(tr.LastAction()))
	assert.Equal(t, "Last: none", lastActionTitle(""))
	assert.Equal(t, "○ Paused", toggleTitle(false))
}
