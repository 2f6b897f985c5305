// Package clock provides the time sources the scheduler is driven by.
//
// Two kinds of time exist in tempo:
//
//   - Frame time: a float64 number of seconds that the external driver
//     advances once per tick. Intervals in self-driving mode compute their
//     local time from it. Frame is the manual source used by tests and by
//     the harness; Wall reads the process monotonic clock.
//   - Logical sequence: a strictly increasing int64 stamped onto trace
//     records so that recorded dispatches have a total order independent of
//     frame time (several dispatches can happen within one frame).
package clock
