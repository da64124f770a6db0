package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a join code does not match a live room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomCodeTaken is returned when creating a room with a code already in use.
	ErrRoomCodeTaken = errors.New("room code already taken")
	// ErrPlayerNotFound is returned when a player acts before joining.
	ErrPlayerNotFound = errors.New("player not found in room")
	// ErrNoPlayers rejects starting a quiz with an empty lobby.
	ErrNoPlayers = errors.New("cannot start quiz with no players")
	// ErrInvalidSettings rejects out-of-range room settings.
	ErrInvalidSettings = errors.New("invalid room settings")
	// ErrWrongStatus is returned when an action is not valid in the room's current phase.
	ErrWrongStatus = errors.New("action not allowed in current room status")
	// ErrNoQuestionOpen is returned when answering while no question is accepting responses.
	ErrNoQuestionOpen = errors.New("no question is open")
	// ErrInvalidAnswer is returned when a submitted option index is out of range.
	ErrInvalidAnswer = errors.New("answer index out of range")
	// ErrEmptyPool indicates the question bank produced no usable people.
	ErrEmptyPool = errors.New("question pool is empty")
)
