package forward

import (
	"crypto/x509"
	"time"

	"avaneesh/dvbci-go/pkg/types"
)

// Certificate decodes DER encoded X.509 certificates
type Certificate struct{}

// NewCertificate creates a certificate decoder
func NewCertificate() *Certificate {
	return &Certificate{}
}

// Name returns the decoder name
func (c *Certificate) Name() string {
	return "certificate"
}

// Decode records the main certificate fields. A payload that does not parse
// is emitted as opaque bytes.
func (c *Certificate) Decode(rec *types.Recorder, payload []byte) error {
	cert, err := x509.ParseCertificate(payload)
	if err != nil {
		rec.Advise(types.ErrInvalidValue, 0, len(payload), "x509: %v", err)
		return NewOpaque().Decode(rec, payload)
	}
	n := len(payload)
	rec.Event("x509.certificate", 0, n, cert.Subject.String())
	rec.Field("x509.serial", 0, n, cert.SerialNumber.String())
	rec.Field("x509.issuer", 0, n, cert.Issuer.String())
	rec.Field("x509.not_before", 0, n, cert.NotBefore.UTC().Format(time.RFC3339))
	rec.Field("x509.not_after", 0, n, cert.NotAfter.UTC().Format(time.RFC3339))
	rec.Field("x509.signature_algorithm", 0, n, cert.SignatureAlgorithm.String())
	rec.Field("x509.is_ca", 0, n, cert.IsCA)
	return nil
}
