package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirst_OrderWins(t *testing.T) {
	rules := []Rule[string]{
		{Result: "a", Match: func(s string) bool { return s == "x" }},
		{Result: "b", Match: func(string) bool { return true }},
		{Result: "c", Match: func(string) bool { return true }},
	}
	got, ok := First(rules, "x")
	assert.True(t, ok)
	assert.Equal(t, "a", got)

	got, ok = First(rules, "y")
	assert.True(t, ok)
	assert.Equal(t, "b", got)

	_, ok = First([]Rule[string]{}, "y")
	assert.False(t, ok)
}

func TestContainsAnyWord(t *testing.T) {
	assert.True(t, ContainsAnyWord("hi, nak daftar", []string{"hi"}))
	assert.False(t, ContainsAnyWord("this is it", []string{"hi"}))
	assert.True(t, ContainsAnyWord("selamat pagi semua", []string{"selamat pagi"}))
	assert.False(t, ContainsAnyWord("selamat datang pagi", []string{"selamat pagi"}))
	assert.False(t, ContainsAnyWord("", []string{"hi"}))
}

func TestNormalizeAndTokens(t *testing.T) {
	assert.Equal(t, "hello there", Normalize("  Hello There \n"))
	assert.Equal(t, []string{"eur", "usd", "1", "2"}, Tokens("eur/usd 1:2"))
	assert.Contains(t, TokenSet("a b a"), "a")
	assert.Len(t, TokenSet("a b a"), 2)
}
