package config

import "strings"

// deepMergeMaps merges src into dst in place, recursing into nested
// maps and letting src win on scalar conflicts. Both maps must have
// been produced by a yaml.v3 unmarshal into map[string]any (nested
// maps come back as map[string]any, not map[interface{}]interface{},
// given yaml.v3's decoding rules).
func deepMergeMaps(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, sv := range src {
		if dv, ok := dst[k]; ok {
			dm, dmOk := dv.(map[string]any)
			sm, smOk := sv.(map[string]any)
			if dmOk && smOk {
				dst[k] = deepMergeMaps(dm, sm)
				continue
			}
		}
		dst[k] = sv
	}
	return dst
}

// applyTemplating substitutes {tenant_slug} in every string leaf of a
// merged config tree. No other template syntax is supported.
func applyTemplating(node any, slug string) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			out[k] = applyTemplating(child, slug)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = applyTemplating(child, slug)
		}
		return out
	case string:
		return replaceTenantSlug(v, slug)
	default:
		return v
	}
}

func replaceTenantSlug(s, slug string) string {
	return strings.ReplaceAll(s, "{tenant_slug}", slug)
}
