package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Payment methods shipped with the default schema set.
const (
	MethodCard   = "card"
	MethodSBP    = "sbp"
	MethodCrypto = "crypto"
)

// ErrValidation can be used with errors.Is to detect payment-details
// validation failures.
var ErrValidation = errors.New("validation failed")

// ErrUnknownMethod is returned for a method with no schema on disk.
var ErrUnknownMethod = errors.New("unknown payment method")

// Validator checks withdrawal destination details against a JSON schema per
// payment method. Schemas live as <method>.v1.json files in schemaDir so the
// supported method set is a deployment concern, not a code change.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator loads and compiles every *.json schema in schemaDir.
func NewValidator(schemaDir string) (*Validator, error) {
	entries, err := os.ReadDir(schemaDir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir %q: %w", schemaDir, err)
	}
	schemas := make(map[string]*jsonschema.Schema)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		method := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		method = strings.TrimSuffix(method, ".v1")
		path := filepath.Join(schemaDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		id := "https://reviewcrew.dev/schemas/" + method + ".details"
		schemas[method], err = jsonschema.CompileString(id, string(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", method, err)
		}
	}
	return &Validator{schemas: schemas}, nil
}

// ValidateDetails hard-rejects details that do not match the method's schema.
// Details that are not valid JSON are validated as a plain JSON string, which
// is what the bot gateway sends.
func (v *Validator) ValidateDetails(method, details string) error {
	schema, ok := v.schemas[method]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	var doc any
	if err := json.Unmarshal([]byte(details), &doc); err != nil {
		doc = details
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// Methods lists the configured payment methods, sorted.
func (v *Validator) Methods() []string {
	out := make([]string, 0, len(v.schemas))
	for m := range v.schemas {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
