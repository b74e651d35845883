package job

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// varPattern matches {{ variable }} syntax.
var varPattern = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// EnvVars returns the variables available to job files: the process
// environment under "env".
func EnvVars() map[string]any {
	return map[string]any{"env": getEnvMap()}
}

// Interpolate replaces {{ var }} patterns in s with their values.
// Referencing an undefined variable is an error unless a default filter
// supplies a value.
func Interpolate(s string, vars map[string]any) (string, error) {
	var firstErr error

	result := varPattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := varPattern.FindStringSubmatch(match)
		if len(inner) < 2 {
			return match
		}

		val, err := resolveVariable(inner[1], vars)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return match
		}

		return fmt.Sprintf("%v", val)
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// resolveVariable resolves a variable expression.
func resolveVariable(expr string, vars map[string]any) (any, error) {
	expr = strings.TrimSpace(expr)

	// Handle filters (e.g., env.PASS | default('admin'))
	if idx := strings.Index(expr, "|"); idx > 0 {
		varName := strings.TrimSpace(expr[:idx])
		filter := strings.TrimSpace(expr[idx+1:])
		return applyFilter(varName, filter, vars)
	}

	val := lookupVariable(expr, vars)
	if val == nil {
		return nil, fmt.Errorf("undefined variable: %s", expr)
	}
	return val, nil
}

// lookupVariable looks up a variable by name or dotted path.
func lookupVariable(name string, vars map[string]any) any {
	if val, ok := vars[name]; ok {
		return val
	}

	// Handle dotted paths (e.g., env.HOME)
	if !strings.Contains(name, ".") {
		return nil
	}

	var current any = vars
	for _, part := range strings.Split(name, ".") {
		switch c := current.(type) {
		case map[string]any:
			current = c[part]
		case map[string]string:
			v, ok := c[part]
			if !ok {
				return nil
			}
			current = v
		default:
			return nil
		}

		if current == nil {
			return nil
		}
	}

	return current
}

// applyFilter applies a filter to a value.
func applyFilter(varName, filter string, vars map[string]any) (any, error) {
	val := lookupVariable(varName, vars)

	// Parse filter name and arguments
	filterName := filter
	var filterArg string

	if idx := strings.Index(filter, "("); idx > 0 {
		filterName = strings.TrimSpace(filter[:idx])
		argPart := filter[idx+1:]
		if endIdx := strings.LastIndex(argPart, ")"); endIdx >= 0 {
			filterArg = strings.TrimSpace(argPart[:endIdx])
			filterArg = strings.Trim(filterArg, "'\"")
		}
	}

	if filterName == "default" {
		if val == nil || val == "" {
			return filterArg, nil
		}
		return val, nil
	}

	if val == nil {
		return nil, fmt.Errorf("undefined variable: %s", varName)
	}

	s, ok := val.(string)
	if !ok {
		return nil, fmt.Errorf("filter %s needs a string, got %T", filterName, val)
	}

	switch filterName {
	case "lower":
		return strings.ToLower(s), nil
	case "upper":
		return strings.ToUpper(s), nil
	case "trim":
		return strings.TrimSpace(s), nil
	default:
		return nil, fmt.Errorf("unknown filter: %s", filterName)
	}
}

// getEnvMap returns environment variables as a map.
func getEnvMap() map[string]string {
	env := make(map[string]string)
	for _, e := range os.Environ() {
		if idx := strings.Index(e, "="); idx > 0 {
			env[e[:idx]] = e[idx+1:]
		}
	}
	return env
}
