package syntax

import (
	"bytes"
	"encoding/json"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// LowerYAML converts a YAML document to equivalent JSON text. Mapping order
// is kept so that rules and overrides come out in the order they were
// written. Comments and anchors are not carried over.
func LowerYAML(text []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil, errors.Errorf("%w: %s", ErrParse, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, errors.Errorf("%w: empty YAML document", ErrParse)
	}
	var buf bytes.Buffer
	if err := writeYAMLNode(&buf, doc.Content[0], 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const maxAliasDepth = 64

func writeYAMLNode(buf *bytes.Buffer, n *yaml.Node, depth int) error {
	if depth > maxAliasDepth {
		return errors.Errorf("%w: YAML nesting too deep", ErrParse)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeYAMLNode(buf, n.Content[0], depth+1)
	case yaml.AliasNode:
		return writeYAMLNode(buf, n.Alias, depth+1)
	case yaml.MappingNode:
		buf.WriteByte('{')
		first := true
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if key.Tag == "!!merge" {
				if err := writeMerge(buf, value, &first, depth+1); err != nil {
					return err
				}
				continue
			}
			if !first {
				buf.WriteString(", ")
			}
			first = false
			writeJSONString(buf, key.Value)
			buf.WriteString(": ")
			if err := writeYAMLNode(buf, value, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := writeYAMLNode(buf, item, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		return writeScalar(buf, n)
	default:
		return errors.Errorf("%w: unexpected YAML node kind %d", ErrParse, n.Kind)
	}
	return nil
}

// writeMerge inlines the pairs of a "<<" merge key.
func writeMerge(buf *bytes.Buffer, value *yaml.Node, first *bool, depth int) error {
	sources := []*yaml.Node{value}
	if value.Kind == yaml.SequenceNode {
		sources = value.Content
	}
	for _, src := range sources {
		for src.Kind == yaml.AliasNode {
			src = src.Alias
		}
		if src.Kind != yaml.MappingNode {
			return errors.Errorf("%w: merge key must reference a mapping", ErrParse)
		}
		for i := 0; i+1 < len(src.Content); i += 2 {
			if !*first {
				buf.WriteString(", ")
			}
			*first = false
			writeJSONString(buf, src.Content[i].Value)
			buf.WriteString(": ")
			if err := writeYAMLNode(buf, src.Content[i+1], depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeScalar(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!str", "!!binary", "!!timestamp":
		writeJSONString(buf, n.Value)
		return nil
	case "!!null":
		buf.WriteString("null")
		return nil
	}
	var value any
	if err := n.Decode(&value); err != nil {
		return errors.Errorf("%w: line %d: %s", ErrParse, n.Line, err)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		// .inf and .nan have no JSON form.
		writeJSONString(buf, n.Value)
		return nil //nolint:nilerr
	}
	buf.Write(encoded)
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
}
