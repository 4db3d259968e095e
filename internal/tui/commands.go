package tui

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Command is a slash command of the chat input.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
}

// RequiresArg reports whether the usage names a mandatory <arg>.
func (c *Command) RequiresArg() bool {
	return strings.Contains(c.Usage, "<") && strings.Contains(c.Usage, ">")
}

// CommandRegistry resolves slash commands and aliases.
type CommandRegistry struct {
	commands map[string]*Command
	aliases  map[string]string
	names    []string
}

// NewCommandRegistry returns the chat commands.
func NewCommandRegistry() *CommandRegistry {
	r := &CommandRegistry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}
	for _, c := range []*Command{
		{Name: "help", Aliases: []string{"h", "?"}, Description: "Show available commands", Usage: "/help"},
		{Name: "pick", Aliases: []string{"p"}, Description: "Answer with a suggested option", Usage: "/pick <n>"},
		{Name: "up", Aliases: []string{"good", "+"}, Description: "Rate the last answer as helpful", Usage: "/up"},
		{Name: "down", Aliases: []string{"bad", "-"}, Description: "Rate the last answer as unhelpful", Usage: "/down"},
		{Name: "reason", Aliases: []string{"r"}, Description: "Choose why the answer was unhelpful", Usage: "/reason <n>"},
		{Name: "send", Description: "Send the rating with an optional comment", Usage: "/send [comment]"},
		{Name: "copy", Aliases: []string{"cp"}, Description: "Copy the last answer", Usage: "/copy"},
		{Name: "share", Description: "Copy a result card", Usage: "/share <n>"},
		{Name: "lang", Aliases: []string{"l"}, Description: "Switch language (ko, en, vi, zh)", Usage: "/lang [code]"},
		{Name: "clear", Aliases: []string{"new"}, Description: "Start a new conversation", Usage: "/clear"},
		{Name: "quit", Aliases: []string{"q", "exit"}, Description: "Leave the chat", Usage: "/quit"},
	} {
		r.Register(c)
	}
	return r
}

// Register adds a command.
func (r *CommandRegistry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	r.names = append(r.names, cmd.Name)
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd.Name
	}
}

// Parse splits "/name args..." and resolves aliases. The last return is false
// when input is not a known command.
func (r *CommandRegistry) Parse(input string) (*Command, []string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return nil, nil, false
	}
	parts := strings.Fields(input[1:])
	if len(parts) == 0 {
		return nil, nil, false
	}
	name := strings.ToLower(parts[0])
	if real, ok := r.aliases[name]; ok {
		name = real
	}
	cmd, ok := r.commands[name]
	if !ok {
		return nil, nil, false
	}
	return cmd, parts[1:], true
}

// Suggest returns command names matching partial, best first.
func (r *CommandRegistry) Suggest(partial string) []string {
	partial = strings.ToLower(strings.TrimPrefix(partial, "/"))
	if partial == "" {
		out := append([]string(nil), r.names...)
		sort.Strings(out)
		return out
	}

	all := append([]string(nil), r.names...)
	for alias := range r.aliases {
		all = append(all, alias)
	}
	sort.Strings(all)

	seen := make(map[string]bool)
	var out []string
	for _, m := range fuzzy.Find(partial, all) {
		name := m.Str
		if real, ok := r.aliases[name]; ok {
			name = real
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Help lists every command.
func (r *CommandRegistry) Help() string {
	names := append([]string(nil), r.names...)
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		c := r.commands[name]
		sb.WriteString("  ")
		sb.WriteString(c.Usage)
		if pad := 18 - len(c.Usage); pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
		}
		sb.WriteString(" ")
		sb.WriteString(c.Description)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
