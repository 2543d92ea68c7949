// Package render prints backend data for humans.
package render

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/glamour"
)

// JSON pretty-prints data and highlights it with Glamour. Input that is not
// JSON, or a renderer failure, falls back to the plain text.
func JSON(data []byte, width int) string {
	var js interface{}
	if json.Unmarshal(data, &js) != nil {
		return string(data)
	}

	pretty, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return string(data)
	}

	var sb strings.Builder
	sb.WriteString("```json\n")
	sb.Write(pretty)
	sb.WriteString("\n```")

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return string(pretty)
	}

	out, err := renderer.Render(sb.String())
	if err != nil {
		return string(pretty)
	}

	return strings.TrimSpace(out)
}

// Plain pretty-prints data without styling, for pipes and scripts.
func Plain(data []byte) string {
	var js interface{}
	if json.Unmarshal(data, &js) != nil {
		return string(data)
	}

	pretty, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return string(data)
	}
	return string(pretty)
}
