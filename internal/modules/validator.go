// Package modules enforces the namespacing contract on module payloads and
// provides a strict YAML loader for entity-model configuration.
package modules

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ValidationError reports an illegal modules payload or configuration file.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("module validation: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("module validation: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ValidateNamespacing checks that a modules payload is
// {module_name -> {field -> value}}. Top-level primitives or arrays mean the
// payload was flattened and is rejected.
func ValidateNamespacing(payload map[string]any) error {
	names := make([]string, 0, len(payload))
	for name := range payload {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := payload[name].(map[string]any); !ok {
			return &ValidationError{
				Reason: fmt.Sprintf("module %q must be a mapping of fields, got %T", name, payload[name]),
			}
		}
	}
	return nil
}

// LoadYAMLStrict parses the YAML file at path, rejecting duplicate keys at
// any nesting level.
func LoadYAMLStrict(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("read %s", path), Err: err}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("parse %s", path), Err: err}
	}
	if err := checkDuplicateKeys(&root, ""); err != nil {
		return nil, err
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("decode %s", path), Err: err}
	}
	return parsed, nil
}

func checkDuplicateKeys(node *yaml.Node, path string) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := checkDuplicateKeys(child, path); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		seen := make(map[string]int)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			value := node.Content[i+1]
			if line, ok := seen[key.Value]; ok {
				at := key.Value
				if path != "" {
					at = path + "." + key.Value
				}
				return &ValidationError{
					Reason: fmt.Sprintf("duplicate key %q (lines %d and %d)", at, line, key.Line),
				}
			}
			seen[key.Value] = key.Line

			childPath := key.Value
			if path != "" {
				childPath = path + "." + key.Value
			}
			if err := checkDuplicateKeys(value, childPath); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, child := range node.Content {
			if err := checkDuplicateKeys(child, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}
