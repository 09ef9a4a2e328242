package ware

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/warekit/ware/logging"
)

// YAMLLoader selects how much of the YAML tag system LoadYAML honors.
type YAMLLoader string

const (
	// LoaderBase returns every scalar as its plain string and ignores tags.
	LoaderBase YAMLLoader = "base"

	// LoaderSafe resolves standard YAML tags only. Any other tag is ErrUnexpectedType.
	LoaderSafe YAMLLoader = "safe"

	// LoaderFull is LoaderSafe plus custom tags, which are kept as TaggedValue.
	// Language-specific object tags are rejected.
	LoaderFull YAMLLoader = "full"

	// LoaderUnsafe keeps every non-standard tag as TaggedValue. Use it with trusted input only.
	LoaderUnsafe YAMLLoader = "unsafe"
)

const (
	mergeTag        = "!!merge"
	nullTag         = "!!null"
	objectTagPrefix = "!!python/"
	yamlIndent      = 2

	aliasRatioRangeLow  = 400000
	aliasRatioRangeHigh = 4000000
	minAliasCount       = 100
	minDecodeCount      = 1000
)

var standardTags = map[string]bool{
	"!!str":       true,
	"!!int":       true,
	"!!float":     true,
	"!!bool":      true,
	nullTag:       true,
	"!!timestamp": true,
	"!!binary":    true,
	"!!map":       true,
	"!!seq":       true,
	mergeTag:      true,
}

// TaggedValue is a node carrying a tag the loader doesn't resolve itself.
type TaggedValue struct {
	Tag   string
	Value any
}

// SaveYAML writes data to path. Unicode text is written as-is.
func SaveYAML(path string, data map[string]any) error {
	return logging.Catch(func() error {
		var buf bytes.Buffer

		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(yamlIndent)

		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}

		if err := encoder.Close(); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}

		return os.WriteFile(path, buf.Bytes(), filePermissions)
	})
}

// LoadYAML reads the YAML mapping stored at path. An empty loader means LoaderSafe.
//
// An empty document, or one holding only null, yields an empty map. A document whose root is any
// other scalar or a sequence is ErrUnexpectedType. Anchors, aliases and "<<" merge keys are resolved.
func LoadYAML(path string, loader YAMLLoader) (map[string]any, error) {
	return logging.CatchValue(func() (map[string]any, error) {
		if loader == "" {
			loader = LoaderSafe
		}

		if !loader.valid() {
			return nil, fmt.Errorf("%w: Couldn't recognize given loader `%s`.", ErrInvalidArgument, loader)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		return loader.decodeDocument(path, content)
	})
}

func (l YAMLLoader) valid() bool {
	switch l {
	case LoaderBase, LoaderSafe, LoaderFull, LoaderUnsafe:
		return true
	default:
		return false
	}
}

func (l YAMLLoader) decodeDocument(path string, content []byte) (map[string]any, error) {
	var document yaml.Node
	if err := yaml.Unmarshal(content, &document); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if document.Kind == 0 || len(document.Content) == 0 {
		return map[string]any{}, nil
	}

	root := document.Content[0]
	if root.Kind == yaml.AliasNode {
		root = root.Alias
	}

	switch {
	case root.Kind == yaml.ScalarNode && root.ShortTag() == nullTag:
		return map[string]any{}, nil
	case root.Kind != yaml.MappingNode:
		return nil, fmt.Errorf("%w: %s root is a %s, expected a mapping", ErrUnexpectedType, path, kindName(root))
	}

	d := &yamlDecoder{loader: l, active: make(map[*yaml.Node]bool)}

	decoded, err := d.decode(root)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if tagged, ok := decoded.(TaggedValue); ok {
		decoded = tagged.Value
	}

	mapping, _ := decoded.(map[string]any)

	return mapping, nil
}

// yamlDecoder walks one document. It refuses aliases that point into a collection still being
// decoded, and documents whose nodes mostly come from alias expansion.
type yamlDecoder struct {
	loader      YAMLLoader
	active      map[*yaml.Node]bool
	decodeCount int
	aliasCount  int
	aliasDepth  int
}

// allowedAliasRatio mirrors yaml.v3: small documents may be almost all aliases, large ones
// only a tenth.
func allowedAliasRatio(decodeCount int) float64 {
	switch {
	case decodeCount <= aliasRatioRangeLow:
		return 0.99
	case decodeCount >= aliasRatioRangeHigh:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(decodeCount-aliasRatioRangeLow)/float64(aliasRatioRangeHigh-aliasRatioRangeLow))
	}
}

func (d *yamlDecoder) count(node *yaml.Node) error {
	d.decodeCount++
	if d.aliasDepth > 0 {
		d.aliasCount++
	}

	if d.aliasCount > minAliasCount && d.decodeCount > minDecodeCount &&
		float64(d.aliasCount)/float64(d.decodeCount) > allowedAliasRatio(d.decodeCount) {
		return fmt.Errorf("%w: document contains excessive aliasing at line %d", ErrUnexpectedType, node.Line)
	}

	return nil
}

// resolve follows an alias node to its anchor. fn runs with the alias expansion accounted for.
func (d *yamlDecoder) resolve(node *yaml.Node, fn func(*yaml.Node) error) error {
	if node.Kind != yaml.AliasNode {
		return fn(node)
	}

	target := node.Alias
	if d.active[target] {
		return fmt.Errorf("%w: anchor %q at line %d contains itself", ErrUnexpectedType, node.Value, node.Line)
	}

	d.aliasDepth++
	defer func() { d.aliasDepth-- }()

	return d.resolve(target, fn)
}

func (d *yamlDecoder) decode(node *yaml.Node) (any, error) {
	var value any

	err := d.resolve(node, func(target *yaml.Node) error {
		if err := d.count(target); err != nil {
			return err
		}

		var err error
		value, err = d.decodeTagged(target)

		return err
	})

	return value, err
}

func (d *yamlDecoder) decodeTagged(node *yaml.Node) (any, error) {
	if d.loader == LoaderBase {
		return d.decodeUntagged(node)
	}

	tag := node.ShortTag()
	if standardTags[tag] {
		return d.decodeUntagged(node)
	}

	switch {
	case d.loader == LoaderSafe:
		return nil, fmt.Errorf("%w: tag %s at line %d is not allowed by the safe loader", ErrUnexpectedType, tag, node.Line)
	case d.loader == LoaderFull && strings.HasPrefix(tag, objectTagPrefix):
		return nil, fmt.Errorf("%w: object tag %s at line %d is not allowed by the full loader", ErrUnexpectedType, tag, node.Line)
	}

	untagged := node
	if node.Kind == yaml.ScalarNode {
		scalar := *node
		scalar.Tag = ""
		untagged = &scalar
	}

	value, err := d.decodeUntagged(untagged)
	if err != nil {
		return nil, err
	}

	return TaggedValue{Tag: tag, Value: value}, nil
}

func (d *yamlDecoder) decodeUntagged(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.MappingNode:
		return d.decodeMapping(node)
	case yaml.SequenceNode:
		d.active[node] = true
		defer delete(d.active, node)

		items := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := d.decode(child)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}

		return items, nil
	default:
		if d.loader == LoaderBase {
			return node.Value, nil
		}

		var scalar any
		if err := node.Decode(&scalar); err != nil {
			return nil, err
		}

		return scalar, nil
	}
}

// decodeMapping applies merge keys first so explicit keys always win over merged ones.
// Keys are stringified; two keys with the same text, or a null key, are ErrUnexpectedType.
func (d *yamlDecoder) decodeMapping(node *yaml.Node) (map[string]any, error) {
	d.active[node] = true
	defer delete(d.active, node)

	result := make(map[string]any, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].ShortTag() != mergeTag {
			continue
		}

		if err := d.merge(result, node.Content[i+1]); err != nil {
			return nil, err
		}
	}

	explicit := make(map[string]bool, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if keyNode.ShortTag() == mergeTag {
			continue
		}

		key, err := d.decode(keyNode)
		if err != nil {
			return nil, err
		}

		if key == nil {
			return nil, fmt.Errorf("%w: null mapping key at line %d", ErrUnexpectedType, keyNode.Line)
		}

		name := fmt.Sprint(key)
		if explicit[name] {
			return nil, fmt.Errorf("%w: mapping key %q at line %d is already defined", ErrUnexpectedType, name, keyNode.Line)
		}
		explicit[name] = true

		value, err := d.decode(valueNode)
		if err != nil {
			return nil, err
		}

		result[name] = value
	}

	return result, nil
}

// merge copies the mapping(s) referenced by a "<<" value into target. Within a sequence of
// sources the earlier source wins.
func (d *yamlDecoder) merge(target map[string]any, source *yaml.Node) error {
	return d.resolve(source, func(source *yaml.Node) error {
		switch source.Kind {
		case yaml.MappingNode:
			if err := d.count(source); err != nil {
				return err
			}

			merged, err := d.decodeMapping(source)
			if err != nil {
				return err
			}

			for key, value := range merged {
				if _, exists := target[key]; !exists {
					target[key] = value
				}
			}

			return nil
		case yaml.SequenceNode:
			for _, item := range source.Content {
				if err := d.merge(target, item); err != nil {
					return err
				}
			}

			return nil
		default:
			return fmt.Errorf("%w: merge key at line %d needs a mapping", ErrUnexpectedType, source.Line)
		}
	})
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar " + node.ShortTag()
	default:
		return "node"
	}
}
