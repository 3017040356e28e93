// Package validation checks sample Nostr events against the generated
// schemas. An event is validated against the event schema, and its
// JSON-encoded content field against the content schema when one is given.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrUnsupportedDraft is returned for draft numbers the validator does
	// not know.
	ErrUnsupportedDraft = errors.New("unsupported JSON Schema draft")

	// ErrContentNotJSON is reported when an event's content cannot be
	// checked against the content schema.
	ErrContentNotJSON = errors.New("event content is not a JSON string")
)

var drafts = map[int]*jsonschema.Draft{
	4:    jsonschema.Draft4,
	6:    jsonschema.Draft6,
	7:    jsonschema.Draft7,
	2019: jsonschema.Draft2019,
	2020: jsonschema.Draft2020,
}

// CompileSchema compiles the schema file at path, which also checks that it
// is a valid schema for the draft.
func CompileSchema(path string, draft int) (*jsonschema.Schema, error) {
	d, ok := drafts[draft]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDraft, draft)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = d

	schema, err := compiler.Compile(path)
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	return schema, nil
}

// Validator holds the compiled event and content schemas.
type Validator struct {
	event   *jsonschema.Schema
	content *jsonschema.Schema
}

// New compiles the schemas. contentSchemaPath may be empty.
func New(schemaPath, contentSchemaPath string, draft int) (*Validator, error) {
	event, err := CompileSchema(schemaPath, draft)
	if err != nil {
		return nil, err
	}

	v := &Validator{event: event}
	if contentSchemaPath != "" {
		v.content, err = CompileSchema(contentSchemaPath, draft)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Result is the outcome for one sample.
type Result struct {
	Sample         string
	EventErr       error
	ContentErr     error
	ContentChecked bool
}

// Valid reports whether every check passed.
func (r Result) Valid() bool {
	return r.EventErr == nil && r.ContentErr == nil
}

// ValidateFile validates the sample at path. The error is only non-nil when
// the sample cannot be read or is not JSON.
func (v *Validator) ValidateFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read sample %s: %w", path, err)
	}
	res, err := v.ValidateEvent(data)
	if err != nil {
		return Result{}, fmt.Errorf("invalid JSON in sample %s: %w", path, err)
	}
	res.Sample = path
	return res, nil
}

// ValidateEvent validates one JSON-encoded event.
func (v *Validator) ValidateEvent(data []byte) (Result, error) {
	event, err := decode(data)
	if err != nil {
		return Result{}, err
	}

	res := Result{EventErr: v.event.Validate(event)}
	if v.content == nil {
		return res, nil
	}

	res.ContentChecked = true
	content, err := eventContent(event)
	if err != nil {
		res.ContentErr = err
		return res, nil
	}
	res.ContentErr = v.content.Validate(content)
	return res, nil
}

func eventContent(event any) (any, error) {
	obj, ok := event.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: event is not an object", ErrContentNotJSON)
	}
	raw, ok := obj["content"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: content field missing or not a string", ErrContentNotJSON)
	}
	content, err := decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentNotJSON, err)
	}
	return content, nil
}

func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Report logs one result in the same shape for every sample.
func Report(res Result) {
	log.Printf("%s:", res.Sample)
	if res.EventErr != nil {
		log.Printf("  Event: ❌")
		log.Printf("    Error: %v", res.EventErr)
	} else {
		log.Printf("  Event: ✅")
	}

	if !res.ContentChecked {
		return
	}
	if res.ContentErr != nil {
		log.Printf("  Content: ❌")
		log.Printf("    Error: %v", res.ContentErr)
	} else {
		log.Printf("  Content: ✅")
	}
}
