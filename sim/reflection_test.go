package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReflectionTrigger_FiresAtThreshold(t *testing.T) {
	trigger := NewReflectionTrigger(9)

	trigger.Record(3)
	assert.False(t, trigger.ShouldReflect())
	trigger.Record(3)
	assert.False(t, trigger.ShouldReflect())
	trigger.Record(3)
	assert.True(t, trigger.ShouldReflect(), "9 >= 9 must fire, not 10")
}

func TestReflectionTrigger_OvershootStillFires(t *testing.T) {
	trigger := NewReflectionTrigger(5)

	trigger.Record(10)

	assert.True(t, trigger.ShouldReflect())
	assert.Equal(t, 10, trigger.SinceLast())
}

func TestReflectionTrigger_ResetClosesWindow(t *testing.T) {
	trigger := NewReflectionTrigger(5)
	trigger.Record(3)
	trigger.Record(3)
	assert.True(t, trigger.ShouldReflect())

	trigger.Reset(7)

	assert.False(t, trigger.ShouldReflect())
	assert.Equal(t, 0, trigger.SinceLast())
	assert.Equal(t, 7, trigger.WindowFrom())

	// A fresh accumulation run starts from zero.
	trigger.Record(5)
	assert.True(t, trigger.ShouldReflect())
}
