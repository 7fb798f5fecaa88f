package lorem

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	loremgen "github.com/bozaro/golorem"
)

// Provider is an offline answer engine that writes lorem ipsum filler.
// Used for development without real API keys. When Mentions is set, every
// answer names a subset of them picked from a hash of the prompt, so the same
// keyword always mentions the same names.
type Provider struct {
	// mu guards generator, its rand source is not goroutine safe
	mu        sync.Mutex
	generator *loremgen.Lorem
	Mentions  []string
	Delay     time.Duration
}

func NewProvider(mentions []string) *Provider {
	return &Provider{
		generator: loremgen.New(),
		Mentions:  mentions,
	}
}

// Generate implements ai.Generator.
func (p *Provider) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here is an overview for %q. ", prompt)
	b.WriteString(p.paragraph())

	if picks := p.pick(prompt); len(picks) > 0 {
		fmt.Fprintf(&b, "\n\nTop recommendations: %s.", strings.Join(picks, ", "))
	}
	return b.String(), nil
}

func (p *Provider) paragraph() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generator.Paragraph(2, 4)
}

func (p *Provider) pick(prompt string) []string {
	if len(p.Mentions) == 0 {
		return nil
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	sum := h.Sum32()

	var out []string
	for i, m := range p.Mentions {
		if sum&(1<<uint(i%32)) != 0 {
			out = append(out, m)
		}
	}
	return out
}
