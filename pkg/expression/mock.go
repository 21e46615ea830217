package expression

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider serves synthetic expression profiles for testing
type MockProvider struct {
	id       ProviderID
	mu       sync.Mutex
	profiles map[string]map[string]float64
}

// NewMockProvider creates a mock with a single empty default condition
func NewMockProvider(id string) *MockProvider {
	return &MockProvider{
		id: ProviderID(id),
		profiles: map[string]map[string]float64{
			"default": {},
		},
	}
}

// SetLevel sets one gene's level under a condition, creating the
// condition if needed.
func (p *MockProvider) SetLevel(condition, gene string, level float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.profiles[condition]; !ok {
		p.profiles[condition] = make(map[string]float64)
	}
	p.profiles[condition][gene] = level
}

func (p *MockProvider) ID() ProviderID {
	return p.id
}

func (p *MockProvider) Fetch(ctx context.Context, condition string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if condition == "" {
		condition = "default"
	}
	levels, ok := p.profiles[condition]
	if !ok {
		return Profile{}, fmt.Errorf("condition %s not found", condition)
	}

	// Copy so callers cannot mutate the mock's state.
	out := make(map[string]float64, len(levels))
	for g, l := range levels {
		out[g] = l
	}
	return Profile{Condition: condition, Levels: out}, nil
}
