package index

import (
	"encoding/json"
	"testing"
)

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func TestDecodeKeywords(t *testing.T) {
	tests := []struct {
		name     string
		entries  []json.RawMessage
		expected []KeywordWeight
	}{
		{
			name:     "nil entries",
			entries:  nil,
			expected: nil,
		},
		{
			name:     "well-formed pairs",
			entries:  []json.RawMessage{raw(`["goblin", 0.9]`), raw(`["camp", 0.5]`)},
			expected: []KeywordWeight{{Term: "goblin", Weight: 0.9}, {Term: "camp", Weight: 0.5}},
		},
		{
			name:     "string weight",
			entries:  []json.RawMessage{raw(`["druid", "0.8"]`)},
			expected: []KeywordWeight{{Term: "druid", Weight: 0.8}},
		},
		{
			name:     "malformed weight defaults to zero",
			entries:  []json.RawMessage{raw(`["grove", {"oops": true}]`)},
			expected: []KeywordWeight{{Term: "grove", Weight: 0.0}},
		},
		{
			name:     "missing weight defaults to zero",
			entries:  []json.RawMessage{raw(`["grove"]`)},
			expected: []KeywordWeight{{Term: "grove", Weight: 0.0}},
		},
		{
			name:     "bare string keyword",
			entries:  []json.RawMessage{raw(`"tiefling"`)},
			expected: []KeywordWeight{{Term: "tiefling", Weight: 0.0}},
		},
		{
			name:     "non-string term dropped",
			entries:  []json.RawMessage{raw(`[42, 0.9]`), raw(`["kept", 0.1]`)},
			expected: []KeywordWeight{{Term: "kept", Weight: 0.1}},
		},
		{
			name:     "empty array entry dropped",
			entries:  []json.RawMessage{raw(`[]`)},
			expected: nil,
		},
		{
			name:     "garbage entry dropped",
			entries:  []json.RawMessage{raw(`{"term": "nope"}`)},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeKeywords(tt.entries)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d keywords, got %d: %v", len(tt.expected), len(got), got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("keyword %d: expected %+v, got %+v", i, tt.expected[i], got[i])
				}
			}
		})
	}
}
