package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/tempo/internal/clock"
	"github.com/roach88/tempo/internal/interval"
)

// EventSource is implemented by intervals that hold events for the host,
// such as timelines with external definitions.
type EventSource interface {
	EventReady() bool
}

type slot struct {
	iv       interval.Interval
	key      string
	external bool
	pending  bool
	nextFree int
}

// Registry polls registered intervals against a frame clock.
type Registry struct {
	clock clock.Clock

	slots     []slot
	firstFree int
	byName    map[string]int
	removed   []int
}

// New creates an empty registry reading time from c.
func New(c clock.Clock) *Registry {
	return &Registry{
		clock:     c,
		firstFree: -1,
		byName:    make(map[string]int),
	}
}

// Clock returns the frame clock.
func (r *Registry) Clock() clock.Clock { return r.clock }

// Add registers iv and returns its slot index. If another interval already
// holds the same name it is finished (played as an instant if it never
// started, finalized if it is mid-pass) and removed first. Adding the
// interval that already holds the name returns its existing index.
func (r *Registry) Add(iv interval.Interval, external bool) (int, error) {
	if iv == nil {
		return -1, errors.New("registry: nil interval")
	}
	key := interval.NormalizeName(iv.Name())

	var finishErr error
	if idx, ok := r.byName[key]; ok {
		old := r.slots[idx]
		if old.iv == iv {
			r.slots[idx].external = external
			return idx, nil
		}
		slog.Debug("replacing interval", "name", iv.Name(), "index", idx)
		finishErr = finish(old.iv)
		r.removeIndex(idx)
	}

	idx := r.allocate()
	r.slots[idx] = slot{iv: iv, key: key, external: external, nextFree: -1}
	r.byName[key] = idx
	slog.Debug("interval added", "name", iv.Name(), "index", idx, "external", external)
	return idx, finishErr
}

// Start prepares iv for self-driving playback at the current frame time and
// registers it.
func (r *Registry) Start(iv interval.Interval, external bool, opts interval.PlayOptions) (int, error) {
	if err := interval.SetupPlay(iv, r.clock.Now(), opts); err != nil {
		return -1, err
	}
	return r.Add(iv, external)
}

// Resume re-anchors iv at its current local time and registers it if it is
// not registered already.
func (r *Registry) Resume(iv interval.Interval, external bool) (int, error) {
	interval.Resume(iv, r.clock.Now())
	return r.Add(iv, external)
}

// Find returns the slot of the interval registered under name, or -1.
func (r *Registry) Find(name string) int {
	if idx, ok := r.byName[interval.NormalizeName(name)]; ok {
		return idx
	}
	return -1
}

// Get returns the interval in slot idx, or nil.
func (r *Registry) Get(idx int) interval.Interval {
	if idx < 0 || idx >= len(r.slots) {
		return nil
	}
	return r.slots[idx].iv
}

// Remove deregisters the interval in slot idx without finishing it. It
// reports whether the slot was occupied.
func (r *Registry) Remove(idx int) bool {
	if r.Get(idx) == nil || r.slots[idx].pending {
		return false
	}
	r.removeIndex(idx)
	return true
}

// Len returns the number of named intervals.
func (r *Registry) Len() int { return len(r.byName) }

// MaxIndex returns one more than the highest slot index ever used.
func (r *Registry) MaxIndex() int { return len(r.slots) }

// Step polls every registered interval once at the current frame time.
// Intervals that will not continue are removed. Failures are logged and
// joined; one failing interval never stops the others.
func (r *Registry) Step() error {
	now := r.clock.Now()
	var errs []error
	for _, key := range r.orderedKeys() {
		idx, ok := r.byName[key]
		if !ok {
			// Removed by an earlier interval's callback.
			continue
		}
		iv := r.slots[idx].iv
		if _, err := interval.StepPlay(iv, now); err != nil {
			slog.Error("interval step failed", "name", iv.Name(), "index", idx, "error", err)
			errs = append(errs, fmt.Errorf("step %q: %w", iv.Name(), err))
		}
		if r.slots[idx].iv == iv && !interval.Continues(iv) {
			r.removeIndex(idx)
		}
	}
	return errors.Join(errs...)
}

// NextEvent returns the slot of an external interval with an event ready
// for the host.
func (r *Registry) NextEvent() (int, bool) {
	for idx, s := range r.slots {
		if s.iv == nil || !s.external {
			continue
		}
		if src, ok := s.iv.(EventSource); ok && src.EventReady() {
			return idx, true
		}
	}
	return -1, false
}

// NextRemoval returns the slot of an external interval that stopped, and
// frees it. The returned index may be reused by the next Add.
func (r *Registry) NextRemoval() (int, bool) {
	if len(r.removed) == 0 {
		return -1, false
	}
	idx := r.removed[0]
	r.removed = r.removed[1:]
	r.free(idx)
	return idx, true
}

// PendingRemovals returns the number of removals waiting for NextRemoval.
func (r *Registry) PendingRemovals() int { return len(r.removed) }

// Interrupt pauses every interval flagged auto-pause and finishes every
// interval flagged auto-finish, removing both. It returns how many were
// affected.
func (r *Registry) Interrupt() int {
	n := 0
	for _, key := range r.orderedKeys() {
		idx := r.byName[key]
		iv := r.slots[idx].iv
		core := iv.Core()

		switch {
		case core.AutoPause():
			if iv.State() == interval.StateStarted {
				if err := iv.Interrupt(); err != nil {
					slog.Error("interrupt failed", "name", iv.Name(), "error", err)
				}
			}
		case core.AutoFinish():
			if err := finish(iv); err != nil {
				slog.Error("finish failed", "name", iv.Name(), "error", err)
			}
		default:
			continue
		}
		r.removeIndex(idx)
		n++
	}
	return n
}

// finish brings iv to its final state from wherever it is.
func finish(iv interval.Interval) error {
	switch iv.State() {
	case interval.StateInitial:
		return iv.Instant()
	case interval.StateFinal:
		return nil
	default:
		return iv.Finalize()
	}
}

func (r *Registry) orderedKeys() []string {
	keys := make([]string, 0, len(r.byName))
	for k := range r.byName {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (r *Registry) allocate() int {
	if r.firstFree >= 0 {
		idx := r.firstFree
		r.firstFree = r.slots[idx].nextFree
		return idx
	}
	r.slots = append(r.slots, slot{nextFree: -1})
	return len(r.slots) - 1
}

// removeIndex drops the name mapping. Internal slots are freed at once;
// external slots wait on the removal list.
func (r *Registry) removeIndex(idx int) {
	s := &r.slots[idx]
	if cur, ok := r.byName[s.key]; ok && cur == idx {
		delete(r.byName, s.key)
	}
	if s.external {
		s.pending = true
		r.removed = append(r.removed, idx)
		return
	}
	r.free(idx)
}

func (r *Registry) free(idx int) {
	r.slots[idx] = slot{nextFree: r.firstFree}
	r.firstFree = idx
}
