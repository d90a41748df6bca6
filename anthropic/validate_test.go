package anthropic

import (
	"context"
	"testing"
)

func TestValidateAPIKeyEmpty(t *testing.T) {
	err := ValidateAPIKey(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestExtractKeyHint(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"sk-ant-abcd1234", "1234"},
		{"abc", "****"},
		{"", "****"},
	}

	for _, tt := range tests {
		if got := ExtractKeyHint(tt.key); got != tt.want {
			t.Errorf("ExtractKeyHint(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
