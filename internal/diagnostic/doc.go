// Package diagnostic runs the cluster-consistency background task.
//
// A single Task wakes on a fixed, configurable period and recomputes a
// cheap pairwise diagnostic over every registered stalk: for each unordered
// pair of units it sums the absolute per-resource-kind differences between
// their resource vectors, then folds all pairs into one scalar obstruction
// total. A total of exactly zero publishes dimension 0 ("balanced"); any
// nonzero total publishes dimension 1 ("imbalanced").
//
// The per-unit reads are taken under each unit's own guard, copied out
// before the guard is released. No cross-unit lock is ever held, so a
// snapshot is a set of independently consistent per-unit reads rather than
// one atomic whole-registry view. The tearing is an accepted tradeoff: the
// diagnostic is advisory only and feeds the status surface, never a
// placement decision.
//
// The task observes its stop signal at the start of each wake cycle; Stop
// waits for the in-flight cycle, if any, to finish. No cycle is aborted
// mid-computation. The clock is injectable so tests advance virtual time
// instead of sleeping.
package diagnostic
