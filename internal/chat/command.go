package chat

import (
	"strings"
)

// Command is a parsed "<prefix><alias> <sub> <args>" message.
type Command struct {
	Alias string
	Sub   string
	// Args is the raw remainder after Sub, trimmed.
	Args string
}

// ParseCommand matches body against prefix and aliases. Aliases compare
// case-insensitively; Args keeps its original spacing and case.
func ParseCommand(body, prefix string, aliases []string) (Command, bool) {
	body = strings.TrimLeft(body, " \t")
	if prefix == "" || !strings.HasPrefix(body, prefix) {
		return Command{}, false
	}

	head, rest := splitWord(body[len(prefix):])
	matched := ""
	for _, alias := range aliases {
		if strings.EqualFold(head, alias) {
			matched = alias
			break
		}
	}
	if matched == "" {
		return Command{}, false
	}

	sub, args := splitWord(rest)
	return Command{
		Alias: matched,
		Sub:   strings.ToLower(sub),
		Args:  strings.TrimSpace(args),
	}, true
}

func splitWord(s string) (string, string) {
	s = strings.TrimLeft(s, " \t\n")
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
