package domain

import "errors"

var (
	ErrNotFound                 = errors.New("resource not found")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrForbidden                = errors.New("forbidden")
	ErrUnsupportedFileType      = errors.New("unsupported file type")
	ErrFileTooLarge             = errors.New("file exceeds maximum allowed size")
	ErrEmptyInput               = errors.New("import input is empty")
	ErrVendorNotFound           = errors.New("vendor not found")
	ErrPaymentNotFound          = errors.New("payment not found")
	ErrInvalidVendorType        = errors.New("invalid vendor type")
	ErrInvalidPaymentType       = errors.New("invalid payment type")
	ErrInvalidCurrency          = errors.New("currency is not an ISO 4217 code")
	ErrIncompletePayment        = errors.New("new payment needs a description, an amount and a payment type")
	ErrExtractionFailed         = errors.New("could not parse the import input")
	ErrExtractionInFlight       = errors.New("an extraction is already running for this session")
	ErrSessionNotFound          = errors.New("import session not found")
	ErrSessionClosed            = errors.New("import session is no longer open")
	ErrClarificationNotFound    = errors.New("clarification not found")
	ErrUnresolvedClarifications = errors.New("import has unresolved clarifications")
	ErrIncompleteOperation      = errors.New("operation is missing required vendor or payment data")
	ErrNothingToExecute         = errors.New("import has no operations to execute")
	ErrConfirmationRequired     = errors.New("import has unanswered optional clarifications")
	ErrInvalidChoice            = errors.New("answer is not one of the offered choices")
	ErrOperationNotFound        = errors.New("operation not found")
)
