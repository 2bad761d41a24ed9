package rules

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes the node in its representation form.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToRepresentation())
}

// UnmarshalJSON decodes a representation into the node. The root must be a
// registered node.
func (n *Node) UnmarshalJSON(data []byte) error {
	decoded, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}

// MarshalYAML encodes the node in its representation form.
func (n *Node) MarshalYAML() (interface{}, error) {
	return n.ToRepresentation(), nil
}

// UnmarshalYAML decodes a representation into the node.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	decoded, err := Decode(raw)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}

// ParseJSON decodes a JSON representation into a tree.
func ParseJSON(data []byte) (*Node, error) {
	raw, err := JSONValue(data)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// ParseYAML decodes a YAML representation into a tree.
func ParseYAML(data []byte) (*Node, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return Decode(raw)
}

// JSONValue decodes arbitrary JSON into generic values. Integral numbers
// become int64 and all other numbers float64, so integer arithmetic
// survives a JSON round trip.
func JSONValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return normalizeJSON(raw), nil
}

func normalizeJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		for k, elem := range val {
			val[k] = normalizeJSON(elem)
		}
		return val
	case []any:
		for i, elem := range val {
			val[i] = normalizeJSON(elem)
		}
		return val
	default:
		return v
	}
}
