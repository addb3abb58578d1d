// Package domain holds the entity model of a murder game: games, circles,
// players and the assignments that chain them together.
//
// This package imports nothing internal. The engine, store, render and cli
// packages all build on it.
//
// Key constraints:
//   - Names identify players and circles within a game; they never change.
//   - An assignment's position is set once, when its circle is shuffled.
//   - A completion carries time and reason together and is never cleared.
//   - Chain relationships (previous, next, owners) are computed from
//     positions on every call; there are no stored links to keep in sync.
package domain
