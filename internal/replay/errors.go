package replay

import "errors"

var (
	ErrMalformedOperation = errors.New("malformed operation")
	ErrUnknownOperation   = errors.New("unknown operation")
	ErrJournalMismatch    = errors.New("journal does not match checkpoint")
)
