// Package torb implements the Tokyo Opening Range Breakout engine.
//
// A session's range is the high/low of the candles inside a fixed morning
// window. After the window closes, a close beyond either edge produces a
// Signal whose target scales with the breakout distance and whose stop sits
// past the opposite edge. A Tracker follows the signal to PROFIT, LOSS or a
// forced TIME_EXIT. Runner strings these together over a stream of candles
// for one instrument.
//
// Everything here is pure computation over values passed in. The only
// state is the per-instrument Tracker/Runner owned by the caller.
package torb
