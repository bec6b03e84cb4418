// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// availabilityTTL is how long a successful health probe stays trusted.
const availabilityTTL = 30 * time.Second

// Manager multiplexes several AI providers behind the AIProvider interface.
// One provider is active at a time. When the active provider stops answering
// health probes, or an operation against it fails, the manager probes the
// remaining providers in registration order and switches to the first one
// that responds. Operation errors are returned to the caller either way;
// the switch takes effect on the next call.
type Manager struct {
	mu        sync.Mutex
	providers []AIProvider
	active    int
	checked   map[string]time.Time // last successful probe per provider
	logger    *slog.Logger
}

var _ AIProvider = (*Manager)(nil)

// NewManager creates a provider manager. The first provider is active
// until it becomes unavailable. At least one provider is required.
func NewManager(providers ...AIProvider) (*Manager, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	return &Manager{
		providers: providers,
		checked:   make(map[string]time.Time, len(providers)),
		logger:    slog.Default().With("component", "ai-manager"),
	}, nil
}

// Name identifies the manager in logs and status reports.
func (m *Manager) Name() string {
	return "manager"
}

// ActiveName returns the name of the currently active provider.
func (m *Manager) ActiveName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.providers[m.active].Name()
}

// Embedder returns an embedding service that resolves the active provider
// on every call.
func (m *Manager) Embedder() Embedder {
	return &managerEmbedder{m: m}
}

// Generator returns a chat completion service that resolves the active
// provider on every call.
func (m *Manager) Generator() Generator {
	return &managerGenerator{m: m}
}

// Healthy reports nil when at least one provider answers its health probe.
func (m *Manager) Healthy(ctx context.Context) error {
	if _, err := m.currentProvider(ctx); err != nil {
		return err
	}
	return nil
}

// SwitchTo manually activates the named provider after probing it.
func (m *Manager) SwitchTo(ctx context.Context, name string) error {
	m.mu.Lock()
	idx := -1
	for i, p := range m.providers {
		if p.Name() == name {
			idx = i
			break
		}
	}
	m.mu.Unlock()

	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	p := m.providers[idx]
	if err := p.Healthy(ctx); err != nil {
		return fmt.Errorf("provider %s: %w", name, err)
	}

	m.mu.Lock()
	m.active = idx
	m.checked[p.Name()] = time.Now()
	m.mu.Unlock()

	m.logger.Info("switched provider", "provider", name)
	return nil
}

// Status probes every provider and reports availability by name.
// Probes bypass the availability cache.
func (m *Manager) Status(ctx context.Context) map[string]bool {
	m.mu.Lock()
	providers := make([]AIProvider, len(m.providers))
	copy(providers, m.providers)
	m.mu.Unlock()

	status := make(map[string]bool, len(providers))
	for _, p := range providers {
		status[p.Name()] = p.Healthy(ctx) == nil
	}
	return status
}

// Close closes all managed providers.
func (m *Manager) Close() error {
	var errs []error
	for _, p := range m.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// currentProvider returns the active provider if it is available, switching
// to another registered provider when it is not.
func (m *Manager) currentProvider(ctx context.Context) (AIProvider, error) {
	m.mu.Lock()
	p := m.providers[m.active]
	fresh := time.Since(m.checked[p.Name()]) < availabilityTTL
	m.mu.Unlock()

	if fresh {
		return p, nil
	}

	err := p.Healthy(ctx)
	if err == nil {
		m.noteHealthy(p)
		return p, nil
	}
	m.logger.Warn("active provider unavailable", "provider", p.Name(), "err", err)

	m.mu.Lock()
	candidates := make([]AIProvider, len(m.providers))
	copy(candidates, m.providers)
	m.mu.Unlock()

	for i, candidate := range candidates {
		if candidate == p {
			continue
		}
		if err := candidate.Healthy(ctx); err != nil {
			m.logger.Warn("provider unavailable", "provider", candidate.Name(), "err", err)
			continue
		}

		m.mu.Lock()
		m.active = i
		m.checked[candidate.Name()] = time.Now()
		m.mu.Unlock()

		m.logger.Info("switched provider", "provider", candidate.Name())
		return candidate, nil
	}

	return nil, ErrNoHealthyProvider
}

func (m *Manager) noteHealthy(p AIProvider) {
	m.mu.Lock()
	m.checked[p.Name()] = time.Now()
	m.mu.Unlock()
}

// noteFailure drops the availability cache entry so the next call re-probes
// the provider before trusting it again.
func (m *Manager) noteFailure(p AIProvider) {
	m.mu.Lock()
	delete(m.checked, p.Name())
	m.mu.Unlock()
}

// managerEmbedder routes embedding calls through the active provider.
type managerEmbedder struct {
	m *Manager
}

var _ Embedder = (*managerEmbedder)(nil)

func (e *managerEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	p, err := e.m.currentProvider(ctx)
	if err != nil {
		return nil, err
	}
	vector, err := p.Embedder().EmbedText(ctx, text)
	if err != nil {
		e.m.noteFailure(p)
		return nil, err
	}
	return vector, nil
}

func (e *managerEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	p, err := e.m.currentProvider(ctx)
	if err != nil {
		return nil, err
	}
	vectors, err := p.Embedder().EmbedTexts(ctx, texts)
	if err != nil {
		e.m.noteFailure(p)
		return nil, err
	}
	return vectors, nil
}

// managerGenerator routes completion calls through the active provider.
type managerGenerator struct {
	m *Manager
}

var _ Generator = (*managerGenerator)(nil)

func (g *managerGenerator) Generate(ctx context.Context, messages []Message, opts GenerationOptions) (*GenerationResult, error) {
	p, err := g.m.currentProvider(ctx)
	if err != nil {
		return nil, err
	}
	result, err := p.Generator().Generate(ctx, messages, opts)
	if err != nil {
		g.m.noteFailure(p)
		return nil, err
	}
	return result, nil
}

func (g *managerGenerator) GenerateStream(ctx context.Context, messages []Message, opts GenerationOptions, onDelta StreamFunc) (*GenerationResult, error) {
	p, err := g.m.currentProvider(ctx)
	if err != nil {
		return nil, err
	}
	result, err := p.Generator().GenerateStream(ctx, messages, opts, onDelta)
	if err != nil {
		g.m.noteFailure(p)
		return nil, err
	}
	return result, nil
}
