package classify

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Decision
	}{
		{
			name:  "quote with symbol and keyword",
			query: "AAPL stock price",
			want:  Decision{NeedsQuote: true, QuoteSymbol: "AAPL", NeedsSearch: false},
		},
		{
			name:  "first symbol wins",
			query: "What is the price of AAPL or MSFT",
			want:  Decision{NeedsQuote: true, QuoteSymbol: "AAPL", NeedsSearch: true},
		},
		{
			name:  "quote keyword without symbol",
			query: "tell me about stock prices",
			want:  Decision{},
		},
		{
			name:  "symbol without quote keyword",
			query: "I like NASA",
			want:  Decision{},
		},
		{
			name:  "search only",
			query: "latest news on AI",
			// "AI" is uppercase but no quote keyword accompanies it.
			want: Decision{NeedsSearch: true},
		},
		{
			name:  "question word triggers search",
			query: "who invented the telephone",
			want:  Decision{NeedsSearch: true},
		},
		{
			name:  "both triggers",
			query: "latest analyst recommendation for TSLA",
			want:  Decision{NeedsQuote: true, QuoteSymbol: "TSLA", NeedsSearch: true},
		},
		{
			name:  "neither trigger",
			query: "tell me a joke",
			want:  Decision{},
		},
		{
			name:  "empty query",
			query: "",
			want:  Decision{},
		},
		{
			name:  "leading acronym misfire is accepted behavior",
			query: "USA stock price of AAPL",
			want:  Decision{NeedsQuote: true, QuoteSymbol: "USA", NeedsSearch: false},
		},
		{
			name:  "six letter uppercase run is not a symbol",
			query: "NVIDIA stock price",
			want:  Decision{},
		},
		{
			name:  "single letter symbol",
			query: "F stock price",
			want:  Decision{NeedsQuote: true, QuoteSymbol: "F"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.query); got != tt.want {
				t.Errorf("Decide(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestDecide_IsPure(t *testing.T) {
	query := "AAPL stock price and latest news"
	first := Decide(query)
	for range 10 {
		if got := Decide(query); got != first {
			t.Fatalf("Decide is not deterministic: %+v vs %+v", got, first)
		}
	}
}
