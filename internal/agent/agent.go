// Package agent orchestrates a chat turn: classify the query, gather tool
// context in parallel, assemble the prompt and open the model stream.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/finchhq/finch/internal/classify"
	"github.com/finchhq/finch/internal/log"
	"github.com/finchhq/finch/internal/prompt"
	"github.com/finchhq/finch/internal/upstream"
)

// ErrBadRequest marks caller mistakes, separated from transport failures so
// the HTTP layer can map them to 400.
var ErrBadRequest = errors.New("agent: bad request")

// Labels for the tool context blocks injected into the system prompt.
const (
	quoteBlockLabel  = "Stock Data Retrieved"
	searchBlockLabel = "Web Search Results"
)

// defaultProviderTimeout bounds the tool-gathering phase of a turn.
const defaultProviderTimeout = 5 * time.Second

// QuoteFetcher retrieves market data for a ticker symbol. The result is
// always text: failures degrade to a fallback string.
type QuoteFetcher interface {
	Fetch(ctx context.Context, symbol string) string
}

// SearchFetcher retrieves web search results for a query.
type SearchFetcher interface {
	Fetch(ctx context.Context, query string) string
}

// Streamer opens a streaming model completion.
type Streamer interface {
	ChatStream(ctx context.Context, messages []prompt.Message) (*upstream.Stream, error)
}

// Config wires the agent's collaborators. Quotes and Search may be nil to
// disable the respective tool.
type Config struct {
	Quotes          QuoteFetcher
	Search          SearchFetcher
	Model           Streamer
	Logger          log.Logger
	Persona         string
	ProviderTimeout time.Duration
}

// Request is one chat turn from a client.
type Request struct {
	Query   string        `json:"query"`
	History []prompt.Turn `json:"conversationHistory"`
	Persona string        `json:"agentInstructions,omitempty"`
}

// Agent runs chat turns against the configured model and tools.
type Agent struct {
	cfg    Config
	tracer trace.Tracer
}

func New(cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, errors.New("agent: model streamer is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("agent: logger is required")
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}
	return &Agent{
		cfg:    cfg,
		tracer: otel.Tracer("finch/agent"),
	}, nil
}

// Respond executes one turn and returns the model's event stream. The
// caller owns closing the stream. Tool failures never fail the turn; they
// surface as fallback text inside the prompt.
func (a *Agent) Respond(ctx context.Context, req Request) (*upstream.Stream, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrBadRequest)
	}

	ctx, span := a.tracer.Start(ctx, "agent.Respond")
	defer span.End()

	decision := classify.Decide(query)
	span.SetAttributes(
		attribute.Bool("agent.needs_quote", decision.NeedsQuote),
		attribute.Bool("agent.needs_search", decision.NeedsSearch),
	)

	blocks := a.gather(ctx, query, decision)

	persona := req.Persona
	if persona == "" {
		persona = a.cfg.Persona
	}
	messages := prompt.Assemble(persona, blocks, req.History, query)

	stream, err := a.cfg.Model.ChatStream(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("opening model stream: %w", err)
	}
	return stream, nil
}

// gather runs the needed tool fetches concurrently and returns their
// context blocks, quote data first. A disabled or unneeded tool contributes
// nothing.
func (a *Agent) gather(ctx context.Context, query string, decision classify.Decision) []prompt.Block {
	needQuote := decision.NeedsQuote && a.cfg.Quotes != nil
	needSearch := decision.NeedsSearch && a.cfg.Search != nil
	if !needQuote && !needSearch {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.ProviderTimeout)
	defer cancel()

	ctx, span := a.tracer.Start(ctx, "agent.gather")
	defer span.End()

	// Buffered so a goroutine can finish its single send even if the other
	// branch is consumed first.
	quoteCh := make(chan string, 1)
	searchCh := make(chan string, 1)

	if needQuote {
		go func() {
			quoteCh <- a.cfg.Quotes.Fetch(ctx, decision.QuoteSymbol)
		}()
	}
	if needSearch {
		go func() {
			searchCh <- a.cfg.Search.Fetch(ctx, query)
		}()
	}

	var blocks []prompt.Block
	if needQuote {
		body := <-quoteCh
		a.cfg.Logger.Debug("quote context gathered", "symbol", decision.QuoteSymbol, "bytes", len(body))
		blocks = append(blocks, prompt.Block{Label: quoteBlockLabel, Body: body})
	}
	if needSearch {
		body := <-searchCh
		a.cfg.Logger.Debug("search context gathered", "bytes", len(body))
		blocks = append(blocks, prompt.Block{Label: searchBlockLabel, Body: body})
	}
	return blocks
}
