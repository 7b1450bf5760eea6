package prompt

import (
	"strings"
	"testing"
)

func TestAssemble_DefaultPersona(t *testing.T) {
	msgs := Assemble("", nil, nil, "hello")

	if len(msgs) != 2 {
		t.Fatalf("Assemble() returned %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != RoleSystem {
		t.Errorf("first message role = %q, want %q", msgs[0].Role, RoleSystem)
	}
	if msgs[0].Content != DefaultPersona {
		t.Errorf("system content = %q, want default persona", msgs[0].Content)
	}
	if msgs[1].Role != RoleUser || msgs[1].Content != "hello" {
		t.Errorf("last message = %+v, want user/hello", msgs[1])
	}
}

func TestAssemble_CustomPersona(t *testing.T) {
	msgs := Assemble("You are a pirate.", nil, nil, "ahoy")
	if msgs[0].Content != "You are a pirate." {
		t.Errorf("system content = %q, want custom persona", msgs[0].Content)
	}
}

func TestAssemble_NoBlocksNoInstruction(t *testing.T) {
	msgs := Assemble("", nil, nil, "tell me a joke")
	if strings.Contains(msgs[0].Content, "retrieved the following data") {
		t.Error("system turn contains tool-context instruction without any blocks")
	}
}

func TestAssemble_BlockOrder(t *testing.T) {
	blocks := []Block{
		{Label: "Stock Data Retrieved", Body: "quote table"},
		{Label: "Web Search Results", Body: "search text"},
	}

	msgs := Assemble("", blocks, nil, "AAPL stock price and news")
	sys := msgs[0].Content

	if !strings.Contains(sys, "retrieved the following data") {
		t.Fatal("system turn missing tool-context instruction")
	}
	quoteIdx := strings.Index(sys, "quote table")
	searchIdx := strings.Index(sys, "search text")
	if quoteIdx < 0 || searchIdx < 0 {
		t.Fatalf("system turn missing block bodies:\n%s", sys)
	}
	if quoteIdx > searchIdx {
		t.Error("quote block must precede search block")
	}
	if !strings.Contains(sys, "Use this data to answer the user's question accurately.") {
		t.Error("system turn missing closing directive")
	}
}

func TestAssemble_HistoryVerbatim(t *testing.T) {
	history := []Turn{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "second"},
		// Deliberately unusual: assembly must not validate or reorder.
		{Role: RoleAssistant, Content: ""},
	}

	msgs := Assemble("", nil, history, "third")

	if len(msgs) != 5 {
		t.Fatalf("Assemble() returned %d messages, want 5", len(msgs))
	}
	for i, h := range history {
		got := msgs[i+1]
		if got.Role != h.Role || got.Content != h.Content {
			t.Errorf("history[%d] = %+v, want %+v", i, got, h)
		}
	}
	if msgs[4].Content != "third" {
		t.Errorf("final user turn = %q, want %q", msgs[4].Content, "third")
	}
}

func TestAssemble_SingleSystemEntry(t *testing.T) {
	history := []Turn{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}}
	msgs := Assemble("p", []Block{{Label: "L", Body: "B"}}, history, "q")

	var systems int
	for _, m := range msgs {
		if m.Role == RoleSystem {
			systems++
		}
	}
	if systems != 1 {
		t.Errorf("message list has %d system entries, want exactly 1", systems)
	}
	if msgs[0].Role != RoleSystem {
		t.Error("system entry is not first")
	}
}
