package certificate

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/certificate.schema.json
var certificateSchemaJSON []byte

var (
	certificateSchema   *gojsonschema.Schema
	loadSchemaOnce      sync.Once
	errLoadSchema       error
	errEmptyCertificate = errors.New("certificate is empty")
)

// loadSchema ensures the certificate schema is compiled exactly once.
func loadSchema() (*gojsonschema.Schema, error) {
	loadSchemaOnce.Do(func() {
		certificateSchema, errLoadSchema = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(certificateSchemaJSON))
		if errLoadSchema != nil {
			errLoadSchema = fmt.Errorf("failed to compile certificate schema: %w", errLoadSchema)
		}
	})
	return certificateSchema, errLoadSchema
}

// Validate checks raw JSON against the certificate schema.
func Validate(raw []byte) error {
	if len(raw) == 0 {
		return errEmptyCertificate
	}

	schema, err := loadSchema()
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to validate certificate: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("certificate validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Parse reads a certificate from its JSON form, as produced by
// GetJSONCertificate or returned by the ledger. A null previous field stays
// unset.
func Parse(raw []byte) (*Certificate, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}

	var jc jsonCertificate
	if err := json.Unmarshal(raw, &jc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal certificate: %w", err)
	}

	c := New(WithVersion(jc.Version))
	c.SetData(jc.Data)
	c.previousTxID = jc.PreviousTxID
	c.previousBlock = jc.PreviousBlock

	return c, nil
}
