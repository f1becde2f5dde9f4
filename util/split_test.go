package util

import (
	"reflect"
	"testing"
)

func TestSplitBalanced(t *testing.T) {
	tests := []struct {
		text      string
		delimiter rune
		want      []string
	}{
		{"a,b,c", ',', []string{"a", "b", "c"}},
		{"mut, seeds = [b\"x\", y.key()], bump", ',', []string{"mut", " seeds = [b\"x\", y.key()]", " bump"}},
		{"space = size_of::<Vault>() + 8, bump", ',', []string{"space = size_of::<Vault>() + 8", " bump"}},
		{"f(a, b), c", ',', []string{"f(a, b)", " c"}},
		{"{a, b}, c", ',', []string{"{a, b}", " c"}},
		{"order.maker.as_ref()", '.', []string{"order", "maker", "as_ref()"}},
		{"nonce.to_le_bytes().as_ref()", '.', []string{"nonce", "to_le_bytes()", "as_ref()"}},
		{"", ',', nil},
		{"single", ',', []string{"single"}},
	}

	for _, tt := range tests {
		got := SplitBalanced(tt.text, tt.delimiter)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitBalanced(%q, %q) = %#v, want %#v", tt.text, tt.delimiter, got, tt.want)
		}
	}
}

func TestGenerateFindingID(t *testing.T) {
	a := GenerateFindingID("lib.rs", "Access", "config")
	b := GenerateFindingID("lib.rs", "Access", "config")
	if a != b {
		t.Error("same input must hash to the same id")
	}
	if len(a) != 64 {
		t.Errorf("id length = %d, want 64 hex chars", len(a))
	}
	if a == GenerateFindingID("lib.rs", "Access", "authority") {
		t.Error("different accounts must hash differently")
	}
}
