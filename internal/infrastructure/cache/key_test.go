package cache

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	inputs := []string{
		"",
		"https://d3jbb8n5wk0qxi.cloudfront.net/photos/b9ab0071/small.jpg",
		"not-a-url",
		"ünïcødé 🍕",
		strings.Repeat("x", 10_000),
	}

	for _, in := range inputs {
		first := DeriveKey(in)
		second := DeriveKey(in)
		assert.Equal(t, first, second, "input %q", in)
		assert.Len(t, string(first), KeyLength)
		assert.True(t, IsValidKey(string(first)), "key %q should be valid", first)
	}
}

func TestDeriveKey_KnownVector(t *testing.T) {
	// sha256("")
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		DeriveKey("").String())
}

func TestDeriveKey_DistinctInputs(t *testing.T) {
	seen := make(map[string]string)
	for i := 0; i < 1000; i++ {
		in := fmt.Sprintf("https://example.com/photos/%d/small.jpg", i)
		key := DeriveKey(in).String()
		if prev, dup := seen[key]; dup {
			t.Fatalf("collision between %q and %q", prev, in)
		}
		seen[key] = in
	}
	assert.Len(t, seen, 1000)
}

func TestIsValidKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"derived", DeriveKey("a").String(), true},
		{"empty", "", false},
		{"too short", "abc", false},
		{"uppercase hex", strings.ToUpper(DeriveKey("a").String()), false},
		{"path traversal", "../" + DeriveKey("a").String()[3:], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidKey(tt.key))
		})
	}
}
