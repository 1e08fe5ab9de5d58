package facade

import (
	"fmt"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

// argsMap extracts the request's argument map, generalized from the
// teacher's inline `request.Params.Arguments.(map[string]interface{})`
// assertion repeated at the top of every handler.
func argsMap(raw interface{}) (map[string]interface{}, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: invalid arguments format", deepwikierr.ErrInput)
	}
	return m, nil
}

// requireString extracts a required, non-empty string argument.
func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: %s parameter is required", deepwikierr.ErrInput, key)
	}
	str, ok := val.(string)
	if !ok || str == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", deepwikierr.ErrInput, key)
	}
	return str, nil
}

// optionalString extracts an optional string argument, returning defaultVal
// if absent or of the wrong type.
func optionalString(args map[string]interface{}, key, defaultVal string) string {
	val, ok := args[key]
	if !ok {
		return defaultVal
	}
	str, ok := val.(string)
	if !ok {
		return defaultVal
	}
	return str
}

// clampInt extracts an integer argument (MCP sends numbers as float64) and
// clamps it to [min, max], defaulting to defaultVal when absent or invalid.
func clampInt(args map[string]interface{}, key string, defaultVal, min, max int) int {
	val, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := val.(float64)
	if !ok {
		return defaultVal
	}
	n := int(f)
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// optionalBool extracts an optional boolean argument.
func optionalBool(args map[string]interface{}, key string, defaultVal bool) bool {
	val, ok := args[key]
	if !ok {
		return defaultVal
	}
	b, ok := val.(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// enumArg extracts a string argument and verifies it is one of allowed,
// returning defaultVal when absent.
func enumArg(args map[string]interface{}, key, defaultVal string, allowed ...string) (string, error) {
	val := optionalString(args, key, defaultVal)
	if val == "" {
		return defaultVal, nil
	}
	for _, a := range allowed {
		if a == val {
			return val, nil
		}
	}
	return "", fmt.Errorf("%w: %s must be one of %v, got %q", deepwikierr.ErrInput, key, allowed, val)
}

// validateSubsetOf rejects any value not present in allowed, wrapped as an
// InputError.
func validateSubsetOf(values, allowed []string) error {
	allowedSet := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = true
	}
	for _, v := range values {
		if !allowedSet[v] {
			return fmt.Errorf("%w: %q is not a configured language (allowed: %v)", deepwikierr.ErrInput, v, allowed)
		}
	}
	return nil
}

// stringArrayArg extracts an optional string array argument, filtering out
// non-string elements.
func stringArrayArg(args map[string]interface{}, key string) []string {
	val, ok := args[key]
	if !ok {
		return nil
	}
	arr, ok := val.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
