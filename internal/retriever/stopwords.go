package retriever

// stopWords are query terms too generic to match on. Shared between query
// filtering and any future ingest-side filtering so both sides derive the
// same term set.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "the", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "will", "would", "should",
		"can", "could", "may", "might", "must", "am",
		"i", "me", "my", "myself", "we", "our", "ours", "ourselves",
		"you", "your", "yours", "yourself", "yourselves",
		"he", "him", "his", "himself", "she", "her", "hers", "herself",
		"it", "its", "itself", "they", "them", "their", "theirs", "themselves",
		"what", "which", "who", "whom", "this", "that", "these", "those",
		"to", "of", "at", "by", "for", "with", "about", "against", "between",
		"into", "through", "during", "before", "after", "above", "below",
		"from", "up", "down", "in", "out", "on", "off", "over", "under",
		"again", "further", "then", "once", "here", "there", "when", "where",
		"why", "how", "all", "any", "both", "each", "few", "more", "most",
		"other", "some", "such", "no", "nor", "not", "only", "own", "same",
		"so", "than", "too", "very", "s", "t", "just", "don", "now",
		"get", "make", "go", "see", "know", "take", "find", "tell",
		"ask", "work", "seem", "feel", "try", "leave", "call", "give",
		"let", "put", "say", "set", "look", "want", "need",
		"use",
	} {
		stopWords[w] = struct{}{}
	}
}
