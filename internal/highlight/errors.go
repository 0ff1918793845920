package highlight

import "errors"

// ErrInvalidColor indicates an accent color that is not #rgb or #rrggbb.
var ErrInvalidColor = errors.New("invalid color")
