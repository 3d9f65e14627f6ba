package application

import "errors"

var ErrConflict = errors.New("conflict")
var ErrBadRequest = errors.New("bad request")
