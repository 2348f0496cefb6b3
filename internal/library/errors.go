package library

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a folder, playlist or video does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidName is returned for empty, reserved or malformed names.
	ErrInvalidName = errors.New("invalid name")
	// ErrExists is returned when the target name is already taken.
	ErrExists = errors.New("already exists")
	// ErrInvalidMove is returned when a move would not change anything or
	// would place a folder inside itself.
	ErrInvalidMove = errors.New("invalid move")
	// ErrRemoved is returned when operating on a playlist or folder that has
	// been deleted.
	ErrRemoved = errors.New("removed")
)

// ReservedPrefix marks directories the tree scan skips: thumbnail
// directories and the trash.
const ReservedPrefix = "."

const invalidNameChars = "/\\:*?\"<>|\x00"

// ValidateName reports whether name can be used for a folder or playlist.
func ValidateName(name string) error {
	switch {
	case name == "", strings.TrimSpace(name) == "":
		return ErrInvalidName
	case strings.HasPrefix(name, ReservedPrefix):
		return ErrInvalidName
	case strings.ContainsAny(name, invalidNameChars):
		return ErrInvalidName
	}
	for _, r := range name {
		if r < 0x20 {
			return ErrInvalidName
		}
	}
	return nil
}
