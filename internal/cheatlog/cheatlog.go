// Package cheatlog provides the structured-logging replacement for the
// reference implementation's complain_cheaters (util.cpp): a non-fatal
// report naming which players' shares disagreed with a decoded opening, per
// spec.md §7 item 4 ("detected but non-fatal" cheating).
package cheatlog

import "go.uber.org/zap"

// Report logs a CheatReport event at Warn level naming the opening this
// mismatch was found in (context) and the 1-indexed player indices involved
// (indices). It is a no-op if indices is empty.
func Report(log *zap.Logger, context string, indices []int) {
	if len(indices) == 0 {
		return
	}
	log.Warn("CheatReport",
		zap.String("context", context),
		zap.Ints("indices", indices),
	)
}
