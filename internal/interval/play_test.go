package interval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupPlay_Validation(t *testing.T) {
	b, _ := newRecorded("a", 2)

	err := SetupPlay(b, 0, PlayOptions{Rate: 0, EndT: -1})
	assert.Error(t, err, "zero rate is rejected")

	err = SetupPlay(b, 0, PlayOptions{StartT: 1, EndT: 0.5, Rate: 1})
	assert.Error(t, err, "start after end is rejected")

	require.NoError(t, SetupPlay(b, 0, DefaultPlayOptions()))
}

func TestStepPlay_ForwardFullPass(t *testing.T) {
	b, r := newRecorded("a", 2)
	require.NoError(t, SetupPlay(b, 10, DefaultPlayOptions()))

	loops, err := StepPlay(b, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, loops)
	assert.Equal(t, StateStarted, b.State())

	_, err = StepPlay(b, 11)
	require.NoError(t, err)
	assert.Equal(t, 1.0, b.T())
	assert.True(t, Continues(b))

	loops, err = StepPlay(b, 12.5)
	require.NoError(t, err)
	assert.Equal(t, 1, loops)
	assert.Equal(t, StateFinal, b.State())
	assert.False(t, Continues(b))
	assert.Equal(t, []float64{0, 1, 2}, r.applied)
}

func TestStepPlay_CountsSkippedLoops(t *testing.T) {
	b, _ := newRecorded("a", 1)
	opts := DefaultPlayOptions()
	opts.Loop = true
	require.NoError(t, SetupPlay(b, 0, opts))

	_, err := StepPlay(b, 0)
	require.NoError(t, err)

	loops, err := StepPlay(b, 3.5)
	require.NoError(t, err)
	assert.Equal(t, 3, loops, "three whole cycles elapsed; they are counted, not replayed")
	assert.Equal(t, StateFinal, b.State())

	loops, err = StepPlay(b, 3.75)
	require.NoError(t, err)
	assert.Equal(t, 3, loops)
	assert.Equal(t, StateStarted, b.State())
	assert.InDelta(t, 0.75, b.T(), 1e-9, "play clock advanced by the skipped cycles")
	assert.True(t, Continues(b))
}

func TestStepPlay_ZeroLengthCountsOneLoopPerPoll(t *testing.T) {
	r := &recorder{}
	b := NewBase("z", 0, false, r)
	opts := DefaultPlayOptions()
	opts.Loop = true
	require.NoError(t, SetupPlay(b, 0, opts))

	for i, now := range []float64{0, 0.1, 5} {
		loops, err := StepPlay(b, now)
		require.NoError(t, err)
		assert.Equal(t, i+1, loops)
	}

	// The first poll skips a non-open-ended interval; later polls replay it.
	assert.Equal(t, []float64{0, 0}, r.applied)
}

func TestStepPlay_ZeroLengthOpenEndedPlaysFirstPoll(t *testing.T) {
	b, r := newRecorded("z", 0)
	require.NoError(t, SetupPlay(b, 0, DefaultPlayOptions()))

	loops, err := StepPlay(b, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, loops)
	assert.Equal(t, []float64{0}, r.applied)
	assert.Equal(t, StateFinal, b.State())
}

func TestStepPlay_Reverse(t *testing.T) {
	b, r := newRecorded("a", 2)
	require.NoError(t, SetupPlay(b, 0, PlayOptions{EndT: -1, Rate: -1}))

	_, err := StepPlay(b, 0)
	require.NoError(t, err)
	_, err = StepPlay(b, 1)
	require.NoError(t, err)
	loops, err := StepPlay(b, 2.5)
	require.NoError(t, err)

	assert.Equal(t, 1, loops)
	assert.Equal(t, StateInitial, b.State())
	assert.Equal(t, []float64{2, 1, 0}, r.applied)
}

func TestStepPlay_FailedFinalizeEndsPass(t *testing.T) {
	b, r := newRecorded("a", 2)
	require.NoError(t, SetupPlay(b, 0, DefaultPlayOptions()))

	_, err := StepPlay(b, 0.5)
	require.NoError(t, err)

	boom := errors.New("boom")
	r.err = boom
	loops, err := StepPlay(b, 2.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, loops, "the failed pass still counts")
	assert.False(t, Continues(b))
}

func TestStepPlay_FailedReverseFinalizeEndsPass(t *testing.T) {
	b, r := newRecorded("a", 2)
	require.NoError(t, SetupPlay(b, 0, PlayOptions{EndT: -1, Rate: -1}))

	_, err := StepPlay(b, 0.5)
	require.NoError(t, err)

	r.err = errors.New("boom")
	loops, err := StepPlay(b, 2.5)
	require.Error(t, err)
	assert.Equal(t, 1, loops)
	assert.False(t, Continues(b))
}

func TestStepPlay_PartialWindowInterrupts(t *testing.T) {
	b, r := newRecorded("a", 2)
	require.NoError(t, SetupPlay(b, 0, PlayOptions{EndT: 1, Rate: 1}))

	_, err := StepPlay(b, 0)
	require.NoError(t, err)
	loops, err := StepPlay(b, 1.5)
	require.NoError(t, err)

	assert.Equal(t, 1, loops)
	assert.Equal(t, StatePaused, b.State(), "left mid-pass, so it is interrupted")
	assert.Equal(t, 1.0, b.T())
	assert.Equal(t, 1, r.interrupted)
}

func TestStepPlay_RateScalesTime(t *testing.T) {
	b, _ := newRecorded("a", 4)
	require.NoError(t, SetupPlay(b, 0, PlayOptions{EndT: -1, Rate: 2}))

	_, err := StepPlay(b, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, b.T())
}

func TestStepPlay_RereadsDurationEachPoll(t *testing.T) {
	b, _ := newRecorded("a", 2)
	require.NoError(t, SetupPlay(b, 0, DefaultPlayOptions()))
	_, err := StepPlay(b, 0)
	require.NoError(t, err)

	b.SetDuration(4)
	loops, err := StepPlay(b, 3)
	require.NoError(t, err)

	assert.Equal(t, 0, loops)
	assert.Equal(t, StateStarted, b.State())
	assert.Equal(t, 3.0, b.T())
}

func TestSeekAndResume(t *testing.T) {
	b, _ := newRecorded("a", 2)
	require.NoError(t, SetupPlay(b, 0, DefaultPlayOptions()))

	require.NoError(t, Seek(b, 0.5))
	assert.Equal(t, StatePaused, b.State())
	assert.Equal(t, 0.5, b.T())

	Resume(b, 10)
	_, err := StepPlay(b, 10.5)
	require.NoError(t, err)

	assert.Equal(t, StateStarted, b.State())
	assert.InDelta(t, 1.0, b.T(), 1e-9)
}

func TestSeek_FromFinal(t *testing.T) {
	b, r := newRecorded("a", 2)
	require.NoError(t, b.Instant())

	require.NoError(t, Seek(b, 1))

	assert.Equal(t, StatePaused, b.State())
	assert.Equal(t, []float64{2, 1}, r.applied)
}
