package domain

import (
	"errors"
	"fmt"
)

// Code categorizes game rule violations.
type Code string

const (
	// CodeGameExists indicates a game with the requested id already exists.
	CodeGameExists Code = "game_exists"

	// CodeDuplicateName indicates a player or circle name is already taken.
	CodeDuplicateName Code = "duplicate_name"

	// CodeInvalidName indicates an empty or otherwise unusable name.
	CodeInvalidName Code = "invalid_name"

	// CodeInvalidAddress indicates an empty notification address or one of
	// an unknown kind.
	CodeInvalidAddress Code = "invalid_address"

	// CodeNotNew indicates the operation needs a game that has not started.
	CodeNotNew Code = "not_new"

	// CodeNotRunning indicates the operation needs a running game.
	CodeNotRunning Code = "not_running"

	CodeNoCircles Code = "no_circles"
	CodeNoPlayers Code = "no_players"

	// CodeNotFound indicates a game, player or circle does not exist.
	CodeNotFound Code = "not_found"

	CodeAlreadyMember    Code = "already_member"
	CodeAlreadyCompleted Code = "already_completed"

	// CodeCircleFinished indicates the circle has no achievable assignment left.
	CodeCircleFinished Code = "circle_finished"

	CodeSelfMurder        Code = "self_murder"
	CodeNotInCircle       Code = "not_in_circle"
	CodeKillerNotInCircle Code = "killer_not_in_circle"

	// CodeKillerAlreadyDead indicates the killer's own assignment was
	// completed before the reported murder time.
	CodeKillerAlreadyDead Code = "killer_already_dead"

	CodeCodeMismatch  Code = "code_mismatch"
	CodeWrongPassword Code = "wrong_password"
)

// GameError is a user-facing violation of a game rule.
//
// Every GameError is raised before any state is touched, so callers can
// report the message and carry on with the previous state.
type GameError struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *GameError) Error() string {
	return e.Message
}

// Errorf creates a GameError with a formatted message.
func Errorf(code Code, format string, args ...any) *GameError {
	return &GameError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err is a GameError with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code Code) bool {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// IsGameError reports whether err is, or wraps, a GameError.
func IsGameError(err error) bool {
	var ge *GameError
	return errors.As(err, &ge)
}
