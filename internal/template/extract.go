package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Lookup returns the value at a JSONPath-style path ($.foo.bar, $.items[0].id)
// in a JSON body.
func Lookup(body []byte, jsonPath string) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.New("invalid JSON in response body")
	}
	value := gjson.GetBytes(body, convertJSONPath(jsonPath))
	if !value.Exists() {
		return gjson.Result{}, fmt.Errorf("path %q not found", jsonPath)
	}
	return value, nil
}

// Matches reports whether jsonPath exists in body and, when want is not
// empty, whether its string form equals want.
func Matches(body []byte, jsonPath, want string) bool {
	value, err := Lookup(body, jsonPath)
	if err != nil {
		return false
	}
	if want == "" {
		return true
	}
	return value.String() == want
}

// convertJSONPath converts JSONPath syntax to gjson path format.
// $.foo.bar -> foo.bar
// $.items[0].id -> items.0.id
// $.data[*].name -> data.#.name
func convertJSONPath(path string) string {
	// Remove leading $. or $
	if strings.HasPrefix(path, "$.") {
		path = path[2:]
	} else if strings.HasPrefix(path, "$") {
		path = path[1:]
	}

	// Convert array access [n] to .n
	// Convert [*] to .#
	var result strings.Builder
	i := 0
	for i < len(path) {
		if path[i] == '[' {
			// Find closing bracket
			j := i + 1
			for j < len(path) && path[j] != ']' {
				j++
			}
			if j < len(path) {
				content := path[i+1 : j]
				if content == "*" {
					result.WriteString(".#")
				} else {
					result.WriteByte('.')
					result.WriteString(content)
				}
				i = j + 1
				continue
			}
		}
		result.WriteByte(path[i])
		i++
	}

	return result.String()
}
