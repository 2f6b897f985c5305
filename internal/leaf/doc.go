// Package leaf provides concrete leaf intervals: time fillers, one-shot
// callbacks, value lerps and a translation lerp over a small node hierarchy.
//
// Each type embeds *interval.Base and therefore satisfies interval.Interval.
package leaf
