package scanner

import (
	"context"
	"testing"

	"arxivmonitor/internal/domain"
)

type stubScanner struct {
	name string
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) Scan(context.Context, Request) ([]domain.Paper, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(&stubScanner{name: "arxiv-api"})
	reg.Register(&stubScanner{name: "arxiv-listing"})

	sc, err := reg.Resolve("arxiv-listing")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if sc.Name() != "arxiv-listing" {
		t.Errorf("resolved %q", sc.Name())
	}

	if _, err := reg.Resolve("unknown"); err == nil {
		t.Fatal("expected error for unregistered scanner")
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	first := &stubScanner{name: "arxiv-api"}
	second := &stubScanner{name: "arxiv-api"}
	reg.Register(first)
	reg.Register(second)

	sc, err := reg.Resolve("arxiv-api")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if sc != second {
		t.Error("later registration should win")
	}
}
