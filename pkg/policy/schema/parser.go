package schema

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Decode unmarshals a policy document without validating it. Callers that
// adjust the document before validation, such as the loader defaulting an
// unnamed document to its file name, use this; everything else should go
// through ParseBytes.
func Decode(data []byte, source string) (*PolicyDocument, error) {
	var doc PolicyDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Source: source, Cause: err}
	}
	return &doc, nil
}

// ParseBytes decodes a policy document from YAML bytes and validates it.
// The source argument is used only for error reporting.
func ParseBytes(data []byte, source string) (*PolicyDocument, error) {
	doc, err := Decode(data, source)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseFile reads and parses a single policy document file.
func ParseFile(path string) (*PolicyDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Source: path, Cause: err}
	}
	return ParseBytes(data, path)
}

// Marshal encodes a policy document back to YAML. Parsing the output yields
// a document equal to the input (round-trip property).
func Marshal(doc *PolicyDocument) ([]byte, error) {
	return yaml.Marshal(doc)
}
