// Package engine runs game operations.
//
// The engine owns the rules for when a game may change and who has to be
// told about it. Entities and chain traversal live in package domain;
// persistence, secret codes, shuffling and delivery are collaborators
// injected through small interfaces.
//
// ARCHITECTURE:
//
// Single writer per game:
// Update serializes operations on one game id with a per-game mutex. It
// loads the game, runs the caller's operations on a Service bound to the
// loaded aggregate, and saves the result in one transaction. The store
// rejects the save if another process wrote the game in the meantime.
//
// Validation before mutation:
// Every Service operation checks all of its guards before touching the
// game. A failed guard returns a *domain.GameError and leaves the game
// exactly as it was. If any operation inside an Update fails, nothing of
// that Update is saved.
//
// Journal:
// Each successful operation appends one domain.Event, stamped with the
// next number of a Clock started at the game's stored Seq.
//
// Notifications after commit:
// Operations queue mission updates in an outbox. The outbox is only
// dispatched once the save has committed. Delivery failures are logged and
// counted; they never undo or fail the operation.
package engine
