package llm

import (
	"context"
	"testing"
	"time"
)

type mockTestProvider struct{ name string }

func (m *mockTestProvider) Complete(_ context.Context, _ *Prompt, _ *RequestOptions) (*Response, error) {
	return &Response{Content: "ok"}, nil
}

func (m *mockTestProvider) Stream(_ context.Context, _ *Prompt, _ *RequestOptions, onDelta func(string)) (*Response, error) {
	onDelta("ok")
	return &Response{Content: "ok"}, nil
}

func (m *mockTestProvider) Name() string { return m.name }

func TestNewFactory(t *testing.T) {
	f := NewFactory()
	if f == nil {
		t.Fatal("expected non-nil factory")
	}
	if len(f.constructors) != 0 {
		t.Fatalf("expected empty factory, got %d constructors", len(f.constructors))
	}
}

func TestFactoryCreate_EmptyProvider(t *testing.T) {
	f := NewFactory()
	if _, err := f.Create(ProviderConfig{}); err == nil {
		t.Fatal("expected error: the chat model is mandatory")
	}
}

func TestFactoryCreate_UnknownProvider(t *testing.T) {
	f := NewFactory()
	f.Register("real", func(cfg ProviderConfig) (Provider, error) {
		return &mockTestProvider{name: "real"}, nil
	})
	if _, err := f.Create(ProviderConfig{Provider: "bogus"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestFactoryCreate_Registered(t *testing.T) {
	f := NewFactory()
	f.Register("mock", func(cfg ProviderConfig) (Provider, error) {
		return &mockTestProvider{name: "mock"}, nil
	})

	p, err := f.Create(ProviderConfig{Provider: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected provider")
	}
	if p.Name() != "mock" {
		t.Fatalf("wrong provider: %s", p.Name())
	}
}

func TestFactoryCreate_WrapsWithRetry(t *testing.T) {
	f := NewFactory()
	f.Register("mock", func(cfg ProviderConfig) (Provider, error) {
		return &mockTestProvider{name: "mock"}, nil
	})

	p, err := f.Create(ProviderConfig{Provider: "mock", MaxRetries: 2, Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*RetryProvider); !ok {
		t.Fatalf("expected retry wrapper, got %T", p)
	}
	if p.Name() != "mock" {
		t.Fatal("wrapper should expose the inner provider name")
	}
}
