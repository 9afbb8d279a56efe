package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	tekuri "github.com/santhosh-tekuri/jsonschema/v5"
)

// lockFileSchema is compiled once from a JSON Schema reflected off LockFile
// itself, then reused by every Open call — mirroring the teacher's
// SchemaCompiler cache, simplified to a single schema rather than a
// per-plugin cache since a lock file has exactly one shape.
var lockFileSchema = sync.OnceValues(func() (*tekuri.Schema, error) {
	reflected := jsonschema.Reflect(&LockFile{})
	raw, err := json.Marshal(reflected)
	if err != nil {
		return nil, fmt.Errorf("registry: encoding lock file schema: %w", err)
	}

	compiler := tekuri.NewCompiler()
	compiler.Draft = tekuri.Draft2020
	if err := compiler.AddResource("lockfile.json", strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("registry: loading lock file schema: %w", err)
	}
	return compiler.Compile("lockfile.json")
})

// Schema returns the lock file format as a JSON Schema document, for
// external tooling that wants to validate or generate lock files without
// depending on this module.
func Schema() ([]byte, error) {
	reflected := jsonschema.Reflect(&LockFile{})
	return json.MarshalIndent(reflected, "", "  ")
}

// validateLockFileJSON checks raw against the lock file schema before it is
// unmarshaled, so a malformed external lock file fails with a pointed
// schema error instead of a generic JSON decode error or, worse, a
// zero-valued LockFile that silently reports no extensions.
func validateLockFileJSON(raw []byte) error {
	schema, err := lockFileSchema()
	if err != nil {
		return err
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("registry: parsing lock file: %w", err)
	}

	if err := schema.Validate(decoded); err != nil {
		var verr *tekuri.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("registry: lock file does not match schema:\n  - %s", strings.Join(collectSchemaErrors(verr), "\n  - "))
		}
		return fmt.Errorf("registry: validating lock file: %w", err)
	}
	return nil
}

func collectSchemaErrors(err *tekuri.ValidationError) []string {
	var messages []string
	var walk func(*tekuri.ValidationError)
	walk = func(e *tekuri.ValidationError) {
		if e.Message != "" {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(err)
	return messages
}
