// Package planner contains the charging allocation engine. Given an
// immutable snapshot of vehicles, chargers, routes, energy prices and the
// site power cap, it produces a prioritized set of charging commands plus
// a per-vehicle explanation of every decision it made.
//
// The engine is a deterministic single-pass greedy heuristic: it filters
// eligible vehicles, ranks them by urgency, sizes power per vehicle to
// meet the route deadline, optionally defers charging to a cheaper price
// window, curtails power to protect batteries and books everything
// against the shared site budget. It is pure over its inputs, holds no
// state between calls and performs no I/O, so concurrent invocations with
// different snapshots are safe.
package planner
