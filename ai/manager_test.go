package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	fn    func(ctx context.Context, text string) ([]float32, error)
	calls int
}

func (e *stubEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.fn != nil {
		return e.fn(ctx, text)
	}
	return []float32{1, 0, 0}, nil
}

func (e *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

type stubGenerator struct {
	fn    func(ctx context.Context, messages []Message, opts GenerationOptions) (*GenerationResult, error)
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, messages []Message, opts GenerationOptions) (*GenerationResult, error) {
	g.calls++
	if g.fn != nil {
		return g.fn(ctx, messages, opts)
	}
	return &GenerationResult{Content: "ok", FinishReason: "stop"}, nil
}

func (g *stubGenerator) GenerateStream(ctx context.Context, messages []Message, opts GenerationOptions, onDelta StreamFunc) (*GenerationResult, error) {
	result, err := g.Generate(ctx, messages, opts)
	if err != nil {
		return nil, err
	}
	if onDelta != nil {
		if err := onDelta(ctx, result.Content); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type stubProvider struct {
	name      string
	healthErr error
	probes    int
	closed    bool
	closeErr  error
	embedder  *stubEmbedder
	generator *stubGenerator
}

var _ AIProvider = (*stubProvider)(nil)

func newStubProvider(name string) *stubProvider {
	return &stubProvider{
		name:      name,
		embedder:  &stubEmbedder{},
		generator: &stubGenerator{},
	}
}

func (p *stubProvider) Name() string         { return p.name }
func (p *stubProvider) Embedder() Embedder   { return p.embedder }
func (p *stubProvider) Generator() Generator { return p.generator }

func (p *stubProvider) Healthy(ctx context.Context) error {
	p.probes++
	return p.healthErr
}

func (p *stubProvider) Close() error {
	p.closed = true
	return p.closeErr
}

func TestNewManager_NoProviders(t *testing.T) {
	m, err := NewManager()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProviders)
	assert.Nil(t, m)
}

func TestManagerUsesFirstProvider(t *testing.T) {
	primary := newStubProvider("primary")
	fallback := newStubProvider("fallback")
	m, err := NewManager(primary, fallback)
	require.NoError(t, err)

	assert.Equal(t, "manager", m.Name())
	assert.Equal(t, "primary", m.ActiveName())

	vector, err := m.Embedder().EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, vector)
	assert.Equal(t, 1, primary.embedder.calls)
	assert.Equal(t, 0, fallback.embedder.calls)
}

func TestManagerAvailabilityCache(t *testing.T) {
	primary := newStubProvider("primary")
	m, err := NewManager(primary)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = m.Embedder().EmbedText(ctx, "one")
	require.NoError(t, err)
	_, err = m.Embedder().EmbedText(ctx, "two")
	require.NoError(t, err)

	assert.Equal(t, 1, primary.probes, "second call should trust the cached probe")
	assert.Equal(t, 2, primary.embedder.calls)
}

func TestManagerFailover_UnhealthyActive(t *testing.T) {
	primary := newStubProvider("primary")
	primary.healthErr = errors.New("connection refused")
	fallback := newStubProvider("fallback")
	m, err := NewManager(primary, fallback)
	require.NoError(t, err)

	vector, err := m.Embedder().EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, vector)
	assert.Equal(t, 0, primary.embedder.calls)
	assert.Equal(t, 1, fallback.embedder.calls)
	assert.Equal(t, "fallback", m.ActiveName())
}

func TestManagerFailover_OperationFailure(t *testing.T) {
	primary := newStubProvider("primary")
	opErr := errors.New("model crashed")
	primary.generator.fn = func(context.Context, []Message, GenerationOptions) (*GenerationResult, error) {
		return nil, opErr
	}
	fallback := newStubProvider("fallback")
	m, err := NewManager(primary, fallback)
	require.NoError(t, err)

	ctx := context.Background()
	messages := []Message{{Role: RoleUser, Content: "hello"}}

	// The failing call surfaces its error to the caller.
	_, err = m.Generator().Generate(ctx, messages, GenerationOptions{})
	require.Error(t, err)
	assert.Equal(t, opErr, err)
	assert.Equal(t, "primary", m.ActiveName())

	// The failure dropped the availability cache. When the provider also
	// stops answering probes, the next call switches over.
	primary.healthErr = errors.New("connection refused")

	result, err := m.Generator().Generate(ctx, messages, GenerationOptions{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "fallback", m.ActiveName())
	assert.Equal(t, 1, fallback.generator.calls)
}

func TestManagerSwitchTo(t *testing.T) {
	t.Run("switches to healthy provider", func(t *testing.T) {
		primary := newStubProvider("primary")
		fallback := newStubProvider("fallback")
		m, err := NewManager(primary, fallback)
		require.NoError(t, err)

		err = m.SwitchTo(context.Background(), "fallback")
		require.NoError(t, err)
		assert.Equal(t, "fallback", m.ActiveName())
		assert.Equal(t, 1, fallback.probes)

		// The probe from SwitchTo is cached, so the next call goes
		// straight through.
		_, err = m.Embedder().EmbedText(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, 1, fallback.probes)
	})

	t.Run("unknown provider", func(t *testing.T) {
		primary := newStubProvider("primary")
		m, err := NewManager(primary)
		require.NoError(t, err)

		err = m.SwitchTo(context.Background(), "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})

	t.Run("unhealthy target", func(t *testing.T) {
		primary := newStubProvider("primary")
		fallback := newStubProvider("fallback")
		fallback.healthErr = errors.New("connection refused")
		m, err := NewManager(primary, fallback)
		require.NoError(t, err)

		err = m.SwitchTo(context.Background(), "fallback")
		require.Error(t, err)
		assert.Equal(t, "primary", m.ActiveName())
	})
}

func TestManagerStatus(t *testing.T) {
	primary := newStubProvider("primary")
	fallback := newStubProvider("fallback")
	fallback.healthErr = errors.New("connection refused")
	m, err := NewManager(primary, fallback)
	require.NoError(t, err)

	status := m.Status(context.Background())
	assert.Equal(t, map[string]bool{"primary": true, "fallback": false}, status)
}

func TestManagerHealthy_NoneAvailable(t *testing.T) {
	primary := newStubProvider("primary")
	primary.healthErr = errors.New("down")
	fallback := newStubProvider("fallback")
	fallback.healthErr = errors.New("down")
	m, err := NewManager(primary, fallback)
	require.NoError(t, err)

	err = m.Healthy(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoHealthyProvider)

	_, err = m.Embedder().EmbedText(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoHealthyProvider)
}

func TestManagerGenerateStream(t *testing.T) {
	primary := newStubProvider("primary")
	m, err := NewManager(primary)
	require.NoError(t, err)

	var deltas []string
	messages := []Message{{Role: RoleUser, Content: "hi"}}
	result, err := m.Generator().GenerateStream(context.Background(), messages, GenerationOptions{}, func(_ context.Context, delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, deltas)
}

func TestManagerClose(t *testing.T) {
	primary := newStubProvider("primary")
	fallback := newStubProvider("fallback")
	fallback.closeErr = errors.New("close failed")
	m, err := NewManager(primary, fallback)
	require.NoError(t, err)

	err = m.Close()
	require.Error(t, err)
	assert.True(t, primary.closed)
	assert.True(t, fallback.closed)
}
