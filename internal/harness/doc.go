// Package harness runs scripted games described in YAML and checks their
// outcome.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: three_players
//	description: "What this scenario validates"
//	seed: 2024            # optional; join order without it
//	game:
//	  id: g1
//	  circles: [c1]
//	steps:
//	  - op: add_player
//	    args: { name: A, group: X }
//	  - op: join_circle
//	    args: { player: A, circle: c1 }
//	  - op: start_game
//	  - op: record_murder
//	    args: { killer: A, victim: A, circle: c1 }
//	    expect:
//	      error: self_murder
//	assertions:
//	  - type: game_state
//	    state: running
//	  - type: owner
//	    circle: c1
//	    victim: B
//	    owner: A
//	  - type: final_state
//	    table: assignments
//	    where: { victim: B }
//	    expect: { killer: A }
//
// Each step runs in its own transaction. A step without expect must
// succeed; a step with expect must fail with exactly that game error code.
//
// # Assertion Types
//
//   - trace_contains, trace_order, trace_count: successful steps in the trace
//   - final_state: one row of a store table has the expected fields
//   - game_state: the lifecycle state of the game
//   - owner: the current owner of an assignment ("" for nobody)
//   - achievable, completed: number of such assignments in the game
//   - mass_murderers, alive: the exact list of such players
//
// # Determinism
//
// Every scenario runs against a fresh in-memory store with a step clock,
// sequential journal ids and secret codes of the form "<victim>-<circle>".
// The trace (steps, error codes, journal positions and the mission updates
// each step caused) is therefore stable and compared against golden files
// in tests.
package harness
