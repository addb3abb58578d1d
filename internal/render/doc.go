// Package render turns a game into documents for the game master: a DOT
// graph of the chains, XLSX mission sheets with QR codes and a PNG chart of
// kills per player.
//
// Renderers are pure functions of the game and write to an io.Writer.
// CachePath and WriteCached let callers keep rendered files on disk, keyed
// by the inputs that determine their content.
package render
