package server

import (
	"context"
	"testing"
	"time"

	"countycricket-live/internal/config"
	"countycricket-live/internal/providers/cricapi"
	"countycricket-live/internal/providers/fixture"
	"countycricket-live/internal/providers/youtube"
)

func TestProviderFactoryBuildsWithDefaultInterval(t *testing.T) {
	factory := newProviderFactory(nil, nil)
	prov := factory.build(config.CricAPIConfig{Provider: "fixture"}, 0)
	if prov == nil {
		t.Fatalf("expected provider")
	}
}

func TestNewProviderSingleAttempt(t *testing.T) {
	if prov := NewProvider(config.CricAPIConfig{}, nil, nil, 1); prov == nil {
		t.Fatalf("expected provider")
	}
}

func TestSelectProvider(t *testing.T) {
	if _, ok := selectProvider(config.CricAPIConfig{Provider: "cricapi", APIKey: "k"}, nil).(*cricapi.Client); !ok {
		t.Fatalf("expected cricapi client")
	}
	if _, ok := selectProvider(config.CricAPIConfig{}, nil).(*fixture.Provider); !ok {
		t.Fatalf("expected fixture provider by default")
	}
	if _, ok := selectProvider(config.CricAPIConfig{Provider: "espn"}, nil).(*fixture.Provider); !ok {
		t.Fatalf("expected unknown provider to fall back to fixture")
	}
}

func TestNormalizeProviderName(t *testing.T) {
	if got := normalizeProviderName("CricAPI", nil); got != "cricapi" {
		t.Fatalf("expected lower-cased name, got %q", got)
	}
	if got := normalizeProviderName("", fixture.New()); got != "*fixture.provider" {
		t.Fatalf("expected derived name, got %q", got)
	}
	if got := normalizeProviderName("", nil); got != "provider" {
		t.Fatalf("expected fallback name, got %q", got)
	}
}

func TestSelectStreamProvider(t *testing.T) {
	if _, ok := selectStreamProvider(config.StreamsConfig{}, nil).(*youtube.Client); !ok {
		t.Fatalf("expected youtube client by default")
	}
	if _, ok := selectStreamProvider(config.StreamsConfig{Provider: "fixture"}, nil).(*fixture.Provider); !ok {
		t.Fatalf("expected fixture stream provider")
	}
	if _, ok := selectStreamProvider(config.StreamsConfig{Provider: "twitch"}, nil).(*fixture.Provider); !ok {
		t.Fatalf("expected unknown stream provider to fall back to fixture")
	}
}

func TestNewStreamProviderListsFixtureBroadcasts(t *testing.T) {
	prov := NewStreamProvider(config.StreamsConfig{Provider: "fixture", MinInterval: time.Millisecond}, nil)
	got, err := prov.FetchChannelStreams(context.Background(), "UC-surrey")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected live and upcoming fixture broadcasts, got %+v", got)
	}
}
