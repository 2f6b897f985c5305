package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalTrace(t *testing.T) {
	out, err := MarshalTrace(sampleTrace())
	require.NoError(t, err)
	assert.Equal(t,
		`[{"event":"initialize","frame":1,"index":0,"name":"A","seq":1,"ticks":0,"timeline":"show"},`+
			`{"event":"initialize","external":true,"frame":3,"handle":7,"index":1,"name":"py_fade","seq":2,"ticks":500,"timeline":"show"}]`,
		string(out))
}

func TestEntryToValueUsesMilliseconds(t *testing.T) {
	phony := 3.0
	e := EntrySpec{
		Kind:          KindLevel,
		Name:          "verse",
		Start:         0.25,
		RelTo:         "level_begin",
		LevelDuration: &phony,
		Entries:       []EntrySpec{{Kind: KindWait, Name: "rest", Duration: 1.5}},
	}
	v := e.ToValue()
	assert.Equal(t, Int(250), v["start_ms"])
	assert.Equal(t, Int(3000), v["level_duration_ms"])
	children, ok := v["entries"].(Array)
	require.True(t, ok)
	require.Len(t, children, 1)
	assert.Equal(t, Int(1500), children[0].(Object)["duration_ms"])
}

func TestMillisRounds(t *testing.T) {
	assert.Equal(t, Int(100), Millis(0.1))
	assert.Equal(t, Int(300), Millis(0.1+0.2))
	assert.Equal(t, Int(-500), Millis(-0.5))
}
