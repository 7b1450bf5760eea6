// Package prompt assembles the ordered message list sent to the upstream
// model: one system turn carrying the persona and any retrieved tool context,
// the prior conversation verbatim, then the new user turn.
package prompt

import "strings"

// Message roles on the upstream wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultPersona is the system instruction used when the caller supplies no
// agent instructions of its own.
const DefaultPersona = "You are a helpful AI agent. Provide accurate, detailed, and well-structured responses. " +
	"Use tables for structured data when appropriate and always cite sources when available."

// contextInstruction introduces retrieved tool output inside the system turn.
const contextInstruction = "You have retrieved the following data for the current query:"

// contextDirective closes the tool-context section of the system turn.
const contextDirective = "Use this data to answer the user's question accurately."

// Attachment is an already-resolved file reference carried on a turn.
// The core never validates or mutates it; upload and storage happen
// elsewhere.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Turn is one message of the conversation as exchanged with clients.
type Turn struct {
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Message is one entry of the upstream message list.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Block is the formatted output of one tool provider, injected into the
// system turn. Blocks keep a fixed concatenation order (quote before search)
// regardless of which provider finished first.
type Block struct {
	Label string
	Body  string
}

// Assemble builds the upstream message list.
//
// Invariants: exactly one system entry, always first. History is passed
// through unmodified, with no truncation or token accounting.
func Assemble(persona string, blocks []Block, history []Turn, query string) []Message {
	if persona == "" {
		persona = DefaultPersona
	}

	var sys strings.Builder
	sys.WriteString(persona)

	if len(blocks) > 0 {
		sys.WriteString("\n\n")
		sys.WriteString(contextInstruction)
		for _, b := range blocks {
			sys.WriteString("\n\n**")
			sys.WriteString(b.Label)
			sys.WriteString(":**\n")
			sys.WriteString(b.Body)
		}
		sys.WriteString("\n\n")
		sys.WriteString(contextDirective)
	}

	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: sys.String()})
	for _, t := range history {
		msgs = append(msgs, Message{Role: t.Role, Content: t.Content})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: query})

	return msgs
}
