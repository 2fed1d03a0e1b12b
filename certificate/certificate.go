// Package certificate implements the certificate record anchored on the
// ledger: application data stored hex-encoded, optional links to the
// previous certificate of a chain, and the library version.
//
// A Certificate is a plain value. It is built with New, populated with the
// setters, and serialized with GetJSONCertificate before being handed to a
// submitter.
package certificate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/pilacorp/go-certificate-sdk/common/config"
	"github.com/pilacorp/go-certificate-sdk/common/util"
)

// ErrInvalidUTF8 is returned when a certificate field cannot be represented
// as a JSON string without altering its content.
var ErrInvalidUTF8 = errors.New("certificate field is not valid UTF-8")

// Certificate is one unit of application data anchored to the ledger.
type Certificate struct {
	data          string // hex
	previousTxID  *string
	previousBlock *string
	version       string
}

// jsonCertificate fixes the field order of the serialized form.
type jsonCertificate struct {
	Data          string  `json:"data"`
	PreviousTxID  *string `json:"previousTxID"`
	PreviousBlock *string `json:"previousBlock"`
	Version       string  `json:"version"`
}

// Option configures a Certificate created by New.
type Option func(*Certificate)

// WithVersion sets the library version written into the certificate.
func WithVersion(version string) Option {
	return func(c *Certificate) {
		if version != "" {
			c.version = version
		}
	}
}

// WithConfig takes the library version from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(c *Certificate) {
		if cfg != nil && cfg.LibVersion != "" {
			c.version = cfg.LibVersion
		}
	}
}

// WithPrevious links the certificate to the transaction and block that
// carried the previous certificate of a chain.
func WithPrevious(txID, blockID string) Option {
	return func(c *Certificate) {
		c.SetPreviousTxID(txID)
		c.SetPreviousBlock(blockID)
	}
}

// New creates an empty certificate stamped with config.DefaultLibVersion
// unless an option overrides it.
func New(opts ...Option) *Certificate {
	c := &Certificate{version: config.DefaultLibVersion}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetData stores the application data, hex-encoded.
func (c *Certificate) SetData(data string) {
	c.data = util.StringToHex(data)
}

// GetData returns the application data. A malformed stored value yields the
// empty string.
func (c *Certificate) GetData() string {
	data, err := c.decodeData()
	if err != nil {
		return ""
	}
	return data
}

// decodeData distinguishes a legitimately empty payload from a stored value
// that failed to decode (util.ErrMalformedHex).
func (c *Certificate) decodeData() (string, error) {
	return util.DecodeHexString(c.data)
}

// HexData returns the stored, hex-encoded application data.
func (c *Certificate) HexData() string {
	return c.data
}

// PreviousTxID returns the previous transaction ID and whether it is set.
func (c *Certificate) PreviousTxID() (string, bool) {
	if c.previousTxID == nil {
		return "", false
	}
	return *c.previousTxID, true
}

// SetPreviousTxID sets the ID of the transaction carrying the previous certificate.
func (c *Certificate) SetPreviousTxID(txID string) {
	c.previousTxID = &txID
}

// PreviousBlock returns the previous block ID and whether it is set.
func (c *Certificate) PreviousBlock() (string, bool) {
	if c.previousBlock == nil {
		return "", false
	}
	return *c.previousBlock, true
}

// SetPreviousBlock sets the ID of the block containing the previous certificate.
func (c *Certificate) SetPreviousBlock(blockID string) {
	c.previousBlock = &blockID
}

// ClearPrevious unlinks the certificate; both previous fields serialize as null.
func (c *Certificate) ClearPrevious() {
	c.previousTxID = nil
	c.previousBlock = nil
}

// Version returns the library version recorded in the certificate.
func (c *Certificate) Version() string {
	return c.version
}

// Next returns an empty certificate chained to the one carried by txID in
// blockID. The version is inherited from c.
func (c *Certificate) Next(txID, blockID string) *Certificate {
	return New(WithVersion(c.version), WithPrevious(txID, blockID))
}

// GetJSONCertificate returns the certificate as a JSON object with the
// fields data (decoded plaintext), previousTxID, previousBlock and version.
// Unset previous fields are serialized as null.
func (c *Certificate) GetJSONCertificate() (string, error) {
	b, err := c.marshal()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetCertificateSize returns the size in bytes of the JSON certificate, or 0
// if it cannot be serialized.
func (c *Certificate) GetCertificateSize() int {
	b, err := c.marshal()
	if err != nil {
		return 0
	}
	return len(b)
}

// MarshalJSON implements json.Marshaler. Called directly it returns the bytes
// of GetJSONCertificate, but json.Marshal re-escapes <, > and & in the result,
// so use GetJSONCertificate when the exact certificate bytes matter.
func (c *Certificate) MarshalJSON() ([]byte, error) {
	return c.marshal()
}

// UnmarshalJSON implements json.Unmarshaler. The input must satisfy the
// certificate schema.
func (c *Certificate) UnmarshalJSON(b []byte) error {
	parsed, err := Parse(b)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

func (c *Certificate) marshal() ([]byte, error) {
	data := c.GetData()

	if !utf8.ValidString(data) {
		return nil, fmt.Errorf("%w: data", ErrInvalidUTF8)
	}
	if c.previousTxID != nil && !utf8.ValidString(*c.previousTxID) {
		return nil, fmt.Errorf("%w: previousTxID", ErrInvalidUTF8)
	}
	if c.previousBlock != nil && !utf8.ValidString(*c.previousBlock) {
		return nil, fmt.Errorf("%w: previousBlock", ErrInvalidUTF8)
	}
	if !utf8.ValidString(c.version) {
		return nil, fmt.Errorf("%w: version", ErrInvalidUTF8)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(jsonCertificate{
		Data:          data,
		PreviousTxID:  c.previousTxID,
		PreviousBlock: c.previousBlock,
		Version:       c.version,
	}); err != nil {
		return nil, fmt.Errorf("failed to marshal certificate: %w", err)
	}

	// Encode terminates the value with a newline.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
