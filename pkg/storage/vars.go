package storage

import (
	"os"
	"regexp"
	"strings"
)

// varPattern matches {{VAR_NAME}} or {{env:VAR_NAME}}
var varPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// SubstituteVariables replaces {{VAR}} placeholders with values from vars.
// {{env:NAME}} reads the process environment. Unknown placeholders are kept.
func SubstituteVariables(text string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(text, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}}"), "{{")
		varName = strings.TrimSpace(varName)

		if strings.HasPrefix(varName, "env:") {
			sysVar := strings.TrimPrefix(varName, "env:")
			if val := os.Getenv(sysVar); val != "" {
				return val
			}
			return match
		}

		if val, ok := vars[varName]; ok {
			return val
		}

		return match
	})
}

// ApplyVariables returns a copy of req with variables substituted in the
// path, headers, query and string bodies.
func ApplyVariables(req *Request, vars map[string]string) *Request {
	applied := &Request{
		Name:    req.Name,
		Method:  req.Method,
		Path:    SubstituteVariables(req.Path, vars),
		Headers: make(map[string]string, len(req.Headers)),
		Query:   make(map[string]string, len(req.Query)),
		Body:    substituteBody(req.Body, vars),
	}

	for k, v := range req.Headers {
		applied.Headers[k] = SubstituteVariables(v, vars)
	}

	for k, v := range req.Query {
		applied.Query[k] = SubstituteVariables(v, vars)
	}

	return applied
}

// substituteBody walks YAML-decoded bodies so placeholders inside nested
// objects are replaced too.
func substituteBody(body interface{}, vars map[string]string) interface{} {
	switch v := body.(type) {
	case string:
		return SubstituteVariables(v, vars)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = substituteBody(item, vars)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = substituteBody(item, vars)
		}
		return out
	default:
		return v
	}
}
