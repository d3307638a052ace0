package service

import "strings"

// extractFirstJSON devuelve el primer objeto o array balanceado que aparezca en input,
// ignorando texto alrededor (los modelos suelen agregar explicaciones).
func extractFirstJSON(input string) string {
	start := strings.IndexAny(input, "{[")
	if start == -1 {
		return ""
	}

	var stack []byte
	inString := false
	escape := false

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return ""
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return input[start : i+1]
			}
		}
	}
	return ""
}
