package ruleset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"mercator-hq/basicrules/pkg/rules"
)

// Format is a rule document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the document format from a file extension.
// Anything but .json is read as YAML, which also accepts JSON.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// ParseFormat parses a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q: must be 'yaml' or 'json'", s)
	}
}

// Document is the on-disk form of a ruleset:
//
//	name: pricing
//	rules:
//	  - name: discount
//	    description: Members get a discount
//	    expression:
//	      equals: [{param: [user.member]}, true]
type Document struct {
	Name  string         `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
	Rules []RuleDocument `mapstructure:"rules" json:"rules" yaml:"rules"`
}

// RuleDocument is the on-disk form of a rule. Expression holds the
// nested-mapping representation of the tree.
type RuleDocument struct {
	Name        string `mapstructure:"name" json:"name" yaml:"name"`
	Description string `mapstructure:"description" json:"description,omitempty" yaml:"description,omitempty"`
	Expression  any    `mapstructure:"expression" json:"expression" yaml:"expression"`
}

// ParseDocument decodes raw document bytes into generic values.
// JSON numbers keep their integer-ness.
func ParseDocument(data []byte, format Format) (any, error) {
	switch format {
	case FormatJSON:
		raw, err := rules.JSONValue(data)
		if err != nil {
			return nil, &ParseError{Message: "invalid JSON", Cause: err}
		}
		return raw, nil
	default:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &ParseError{Message: "invalid YAML", Cause: err}
		}
		return raw, nil
	}
}

// Decode builds a ruleset from document bytes using the given registry.
// A nil registry means rules.DefaultRegistry.
func Decode(data []byte, format Format, registry *rules.Registry) (*Ruleset, error) {
	raw, err := ParseDocument(data, format)
	if err != nil {
		return nil, err
	}
	return FromDocument(raw, registry)
}

// FromDocument builds a ruleset from a decoded document value. Unknown
// document keys are rejected; every rule needs a name and an expression
// whose root is a registered node.
func FromDocument(raw any, registry *rules.Registry) (*Ruleset, error) {
	if registry == nil {
		registry = rules.DefaultRegistry
	}
	if raw == nil {
		return nil, &ParseError{Message: "empty document"}
	}

	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &doc,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, &ParseError{Message: "invalid rule document", Cause: err}
	}

	set := &Ruleset{name: doc.Name, index: make(map[string]int, len(doc.Rules))}
	errs := &ErrorList{}
	for i, rd := range doc.Rules {
		r, err := rd.toRule(i, registry)
		if err != nil {
			errs.Add(err)
			continue
		}
		errs.Add(set.Add(r))
	}
	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return set, nil
}

func (rd RuleDocument) toRule(i int, registry *rules.Registry) (*Rule, error) {
	if rd.Name == "" {
		return nil, &RuleError{Index: i, Message: "name is required"}
	}
	if rd.Expression == nil {
		return nil, &RuleError{Index: i, Rule: rd.Name, Message: "expression is required"}
	}
	expr, err := registry.Decode(rd.Expression)
	if err != nil {
		return nil, &RuleError{Index: i, Rule: rd.Name, Message: "invalid expression", Cause: err}
	}
	return &Rule{Name: rd.Name, Description: rd.Description, Expression: expr}, nil
}

// Document returns the on-disk form of the ruleset.
func (s *Ruleset) Document() Document {
	doc := Document{Name: s.name, Rules: make([]RuleDocument, len(s.rules))}
	for i, r := range s.rules {
		doc.Rules[i] = RuleDocument{
			Name:        r.Name,
			Description: r.Description,
			Expression:  r.Expression.ToRepresentation(),
		}
	}
	return doc
}

// Encode renders the ruleset as a document in the given format.
func (s *Ruleset) Encode(format Format) ([]byte, error) {
	doc := s.Document()
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode JSON: %w", err)
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		return buf.Bytes(), nil
	}
}
