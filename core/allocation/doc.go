// Package allocation implements the greedy capacitated charger allocation
// heuristic.
//
// Sites are ranked by total outbound trip volume. Each site in turn receives
// chargers from a budget policy (a charger count ceiling or a monetary
// ceiling with per-station and per-charger costs) and the capacity it gets is
// spread over its areas by a distribution policy. Served volume accumulates
// in a Ledger shared by every site of the run so areas filled early accept
// less later. A run is a single deterministic pass with no randomness.
package allocation
