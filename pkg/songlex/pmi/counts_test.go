package pmi

import (
	"testing"
)

func TestCounterBasic(t *testing.T) {
	counter := NewCounter()
	counter.AddDocument([]string{"whistle", "clear", "descending"})

	if counter.TotalDocs() != 1 {
		t.Errorf("Expected 1 document, got %d", counter.TotalDocs())
	}
	if counter.GetTokenCount("clear") != 1 {
		t.Error("Token 'clear' should have count 1")
	}
	if counter.UniquePairs() != 3 {
		t.Errorf("Expected 3 pairs, got %d", counter.UniquePairs())
	}
}

func TestCounterCooccurrence(t *testing.T) {
	counter := NewCounter()
	counter.AddDocument([]string{"high-pitched", "trill"})
	counter.AddDocument([]string{"high-pitched", "trill"})
	counter.AddDocument([]string{"trill"})

	if counter.GetTokenCount("trill") != 3 {
		t.Error("trill should appear in 3 descriptions")
	}
	if count := counter.GetPairCount("high-pitched", "trill"); count != 2 {
		t.Errorf("Pair should co-occur 2 times, got %d", count)
	}
}

func TestCounterCanonicalOrdering(t *testing.T) {
	counter := NewCounter()
	counter.AddDocument([]string{"warble", "buzz"})

	if counter.GetPairCount("warble", "buzz") != 1 || counter.GetPairCount("buzz", "warble") != 1 {
		t.Error("Pair count should be symmetric")
	}
	if NewPair("warble", "buzz") != (TokenPair{T1: "buzz", T2: "warble"}) {
		t.Error("NewPair should order tokens")
	}
}

func TestCounterRepeatedTokensCountOnce(t *testing.T) {
	counter := NewCounter()
	counter.AddDocument([]string{"chip", "chip", "", "note", "chip"})

	if counter.GetTokenCount("chip") != 1 {
		t.Errorf("Repeated token should count once, got %d", counter.GetTokenCount("chip"))
	}
	if counter.GetTokenCount("") != 0 {
		t.Error("Empty token should not be counted")
	}
	if counter.GetPairCount("chip", "chip") != 0 {
		t.Error("Self pairs should not be counted")
	}
	if counter.UniqueTokens() != 2 {
		t.Errorf("Expected 2 unique tokens, got %d", counter.UniqueTokens())
	}
}

func TestCounterEmptyDocument(t *testing.T) {
	counter := NewCounter()
	counter.AddDocument(nil)

	if counter.TotalDocs() != 1 {
		t.Error("Empty description still counts as a document")
	}
	if counter.UniqueTokens() != 0 || counter.UniquePairs() != 0 {
		t.Error("Empty description should add no tokens or pairs")
	}
}

func TestCounterClone(t *testing.T) {
	counter := NewCounter()
	counter.AddDocument([]string{"song", "call"})

	clone := counter.Clone()
	counter.AddDocument([]string{"song", "call"})

	if clone.TotalDocs() != 1 || clone.GetPairCount("song", "call") != 1 {
		t.Error("Clone should not see later updates")
	}
	if counter.GetPairCount("song", "call") != 2 {
		t.Error("Original should keep counting")
	}
}
