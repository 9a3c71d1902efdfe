package urls

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"earnings-transcripts/pkg/logger"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

var errEmptyCompletion = errors.New("model returned no choices")

// Completer sends a single prompt to a chat model and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAICompleter talks to an OpenAI-compatible chat completions endpoint
type OpenAICompleter struct {
	client openai.Client
	model  string
}

// NewOpenAICompleter creates a completer. An empty baseURL uses the OpenAI default.
func NewOpenAICompleter(baseURL, apiKey, model string) *OpenAICompleter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAICompleter{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Complete implements Completer
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

const llmPrompt = `List the most likely URLs where the full transcript of the %s earnings call for Q%d %d can be read.
Prefer the company's investor relations pages and official transcript documents (PDF or TXT).
Answer with at most %d URLs, one per line, and nothing else.`

var urlPattern = regexp.MustCompile(`https?://[^\s<>"'()\[\]]+`)

// LLMGenerator asks a chat model for likely transcript locations.
type LLMGenerator struct {
	completer Completer
	maxURLs   int
}

// NewLLMGenerator creates a generator returning at most maxURLs candidates (default 5)
func NewLLMGenerator(completer Completer, maxURLs int) *LLMGenerator {
	if maxURLs <= 0 {
		maxURLs = 5
	}
	return &LLMGenerator{completer: completer, maxURLs: maxURLs}
}

// Generate implements Generator
func (g *LLMGenerator) Generate(ctx context.Context, q Query) ([]string, error) {
	company := strings.ToUpper(q.Ticker)
	if q.CompanyName != "" && !strings.EqualFold(q.CompanyName, q.Ticker) {
		company = fmt.Sprintf("%s (%s)", q.CompanyName, strings.ToUpper(q.Ticker))
	}

	reply, err := g.completer.Complete(ctx, fmt.Sprintf(llmPrompt, company, q.Quarter, q.Year, g.maxURLs))
	if err != nil {
		return nil, err
	}

	urls := ParseURLs(reply, g.maxURLs)
	logger.Log.WithField("ticker", q.Ticker).Debugf("LLMGenerator: %d candidates proposed", len(urls))
	return urls, nil
}

// ParseURLs returns up to limit distinct http(s) URLs found in text, in order
func ParseURLs(text string, limit int) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, m := range urlPattern.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;:!?")
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
