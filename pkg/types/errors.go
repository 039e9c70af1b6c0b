package types

import "errors"

// Error taxonomy shared by every layer. Layers wrap these with context
// via fmt.Errorf("%w. ...") so callers can test with errors.Is.
var (
	ErrShortBuffer           = errors.New("dvbci: buffer too short")
	ErrMalformedLength       = errors.New("dvbci: malformed length field")
	ErrLengthMismatch        = errors.New("dvbci: length mismatch")
	ErrUnknownTag            = errors.New("dvbci: unknown tag")
	ErrDirectionViolation    = errors.New("dvbci: message sent in wrong direction")
	ErrResourceClassMismatch = errors.New("dvbci: resource class mismatch")
	ErrResourceVersionTooLow = errors.New("dvbci: resource version too low")
	ErrTcidMismatch          = errors.New("dvbci: transport connection id mismatch")
	ErrDecryptionFailure     = errors.New("dvbci: could not decrypt")
	ErrStatusBlockMissing    = errors.New("dvbci: status block missing")
	ErrNotEncrypted          = errors.New("dvbci: body must be encrypted")
	ErrInvalidValue          = errors.New("dvbci: invalid field value")
	ErrOutOfOrder            = errors.New("dvbci: frame out of order")
)
