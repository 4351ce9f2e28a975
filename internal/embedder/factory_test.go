package embedder

import (
	"testing"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		ollamaHost string
		want       string
	}{
		{
			name:     "explicit ollama provider",
			provider: "ollama",
			want:     ProviderOllama,
		},
		{
			name:     "explicit local provider",
			provider: "local",
			want:     ProviderLocal,
		},
		{
			name:     "provider name is case insensitive",
			provider: "OLLAMA",
			want:     ProviderOllama,
		},
		{
			name:       "ollama host present",
			ollamaHost: "http://localhost:11434",
			want:       ProviderOllama,
		},
		{
			name: "nothing configured falls back to local",
			want: ProviderLocal,
		},
		{
			name:       "explicit provider wins over host",
			provider:   "local",
			ollamaHost: "http://localhost:11434",
			want:       ProviderLocal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvProvider, tt.provider)
			t.Setenv(EnvOllamaHost, tt.ollamaHost)

			if got := DetectProvider(); got != tt.want {
				t.Errorf("DetectProvider() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Run("local by default", func(t *testing.T) {
		t.Setenv(EnvProvider, "")
		t.Setenv(EnvOllamaHost, "")

		emb, err := NewFromEnv()
		if err != nil {
			t.Fatalf("NewFromEnv() error = %v", err)
		}
		defer emb.Close()

		if emb.Provider() != ProviderLocal {
			t.Errorf("Provider() = %s, want %s", emb.Provider(), ProviderLocal)
		}
	})

	t.Run("explicit ollama", func(t *testing.T) {
		t.Setenv(EnvProvider, "ollama")
		t.Setenv(EnvOllamaHost, "http://ollama.internal:11434")
		t.Setenv(EnvModel, "mxbai-embed-large")

		emb, err := NewFromEnv()
		if err != nil {
			t.Fatalf("NewFromEnv() error = %v", err)
		}
		defer emb.Close()

		if emb.Provider() != ProviderOllama {
			t.Errorf("Provider() = %s, want %s", emb.Provider(), ProviderOllama)
		}
		if emb.Model() != "mxbai-embed-large" {
			t.Errorf("Model() = %s, want mxbai-embed-large", emb.Model())
		}
	})

	t.Run("unknown provider rejected", func(t *testing.T) {
		t.Setenv(EnvProvider, "cloudmagic")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("expected error for unknown provider")
		}
	})
}

func TestNewExplicitConfig(t *testing.T) {
	emb, err := New(Config{Provider: "local", CacheSize: 100})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer emb.Close()

	if emb.Provider() != ProviderLocal {
		t.Errorf("Provider() = %s, want %s", emb.Provider(), ProviderLocal)
	}

	emb, err = New(Config{Provider: "ollama", Host: "http://remote:11434", Model: "custom"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer emb.Close()

	if emb.Model() != "custom" {
		t.Errorf("Model() = %s, want custom", emb.Model())
	}

	if _, err := New(Config{Provider: "nope"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
