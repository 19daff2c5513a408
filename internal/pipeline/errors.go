package pipeline

import "errors"

// ErrMultipleNext — middleware вызвал next больше одного раза.
// Это ошибка программиста: попытка не повторяется.
var ErrMultipleNext = errors.New("next() called multiple times")
