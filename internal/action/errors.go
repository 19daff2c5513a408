package action

import "errors"

// Ошибки реестра actions.
var (
	// ErrActionNotFound — action с таким именем не зарегистрирован.
	ErrActionNotFound = errors.New("action not found")

	// ErrDuplicateAction — action с таким именем уже зарегистрирован.
	ErrDuplicateAction = errors.New("action already registered")

	// ErrInvalidAction — пустое имя или action без Run.
	ErrInvalidAction = errors.New("invalid action")
)
