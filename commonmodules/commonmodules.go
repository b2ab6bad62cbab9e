// Package commonmodules provides the built-in attribute post-processors for
// type conversion: INT, FLOAT, STR, BOOL, UPPER, LOWER, DATE and DATETIME.
// Call Register before compiling schemas that use them.
package commonmodules

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/c360/relgraph/graph"
	"github.com/c360/relgraph/registry"
)

const (
	defaultDateLayout     = "2006-01-02"
	defaultDateTimeLayout = "2006-01-02T15:04:05"
)

// Register binds the common type-conversion post-processors into a registry
func Register(r *registry.Registry) {
	r.RegisterAttributePostprocessor("INT", toInt)
	r.RegisterAttributePostprocessor("FLOAT", toFloat)
	r.RegisterAttributePostprocessor("STR", toString)
	r.RegisterAttributePostprocessor("BOOL", toBool)
	r.RegisterAttributePostprocessor("UPPER", toUpper)
	r.RegisterAttributePostprocessor("LOWER", toLower)
	r.RegisterAttributePostprocessor("DATE", toDate)
	r.RegisterAttributePostprocessor("DATETIME", toDateTime)
}

// RegisterDefault binds the common post-processors into the process-wide
// registry
func RegisterDefault() {
	Register(registry.Default())
}

func toInt(attr graph.Attribute, _ []any) (graph.Attribute, error) {
	switch v := attr.Value.(type) {
	case int64:
		return attr, nil
	case float64:
		return graph.NewAttribute(attr.Key, int64(v)), nil
	case bool:
		if v {
			return graph.NewAttribute(attr.Key, int64(1)), nil
		}
		return graph.NewAttribute(attr.Key, int64(0)), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return attr, fmt.Errorf("INT: cannot convert %q: %w", v, err)
		}
		return graph.NewAttribute(attr.Key, parsed), nil
	}
	return attr, fmt.Errorf("INT: cannot convert %T", attr.Value)
}

func toFloat(attr graph.Attribute, _ []any) (graph.Attribute, error) {
	switch v := attr.Value.(type) {
	case float64:
		return attr, nil
	case int64:
		return graph.NewAttribute(attr.Key, float64(v)), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return attr, fmt.Errorf("FLOAT: cannot convert %q: %w", v, err)
		}
		return graph.NewAttribute(attr.Key, parsed), nil
	}
	return attr, fmt.Errorf("FLOAT: cannot convert %T", attr.Value)
}

func toString(attr graph.Attribute, _ []any) (graph.Attribute, error) {
	if _, ok := attr.Value.(string); ok {
		return attr, nil
	}
	return graph.NewAttribute(attr.Key, fmt.Sprintf("%v", attr.Value)), nil
}

func toBool(attr graph.Attribute, _ []any) (graph.Attribute, error) {
	switch v := attr.Value.(type) {
	case bool:
		return attr, nil
	case int64:
		return graph.NewAttribute(attr.Key, v != 0), nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return attr, fmt.Errorf("BOOL: cannot convert %q: %w", v, err)
		}
		return graph.NewAttribute(attr.Key, parsed), nil
	}
	return attr, fmt.Errorf("BOOL: cannot convert %T", attr.Value)
}

func toUpper(attr graph.Attribute, _ []any) (graph.Attribute, error) {
	if s, ok := attr.Value.(string); ok {
		return graph.NewAttribute(attr.Key, strings.ToUpper(s)), nil
	}
	return attr, nil
}

func toLower(attr graph.Attribute, _ []any) (graph.Attribute, error) {
	if s, ok := attr.Value.(string); ok {
		return graph.NewAttribute(attr.Key, strings.ToLower(s)), nil
	}
	return attr, nil
}

// layoutArg returns the first static argument as a time layout, or fallback
func layoutArg(args []any, fallback string) string {
	if len(args) > 0 {
		if layout, ok := args[0].(string); ok {
			return layout
		}
	}
	return fallback
}

func toDate(attr graph.Attribute, args []any) (graph.Attribute, error) {
	switch v := attr.Value.(type) {
	case time.Time:
		return graph.NewAttribute(attr.Key, v.Truncate(24*time.Hour)), nil
	case string:
		parsed, err := time.Parse(layoutArg(args, defaultDateLayout), v)
		if err != nil {
			return attr, fmt.Errorf("DATE: cannot parse %q: %w", v, err)
		}
		return graph.NewAttribute(attr.Key, parsed), nil
	}
	return attr, fmt.Errorf("DATE: cannot convert %T", attr.Value)
}

func toDateTime(attr graph.Attribute, args []any) (graph.Attribute, error) {
	switch v := attr.Value.(type) {
	case time.Time:
		return attr, nil
	case string:
		parsed, err := time.Parse(layoutArg(args, defaultDateTimeLayout), v)
		if err != nil {
			return attr, fmt.Errorf("DATETIME: cannot parse %q: %w", v, err)
		}
		return graph.NewAttribute(attr.Key, parsed), nil
	}
	return attr, fmt.Errorf("DATETIME: cannot convert %T", attr.Value)
}
