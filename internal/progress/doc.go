// Package progress throttles progress events for long-running workers.
//
// A Reporter forwards (found, target) observations to an Emitter no more
// often than its interval. The first and the final observation of a run
// bypass the gate so every run delivers at least two observations.
// Status notices are never throttled.
package progress
