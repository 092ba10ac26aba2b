package index

// Index is the immutable in-memory collection of keyword-tagged documents.
// It is built once at startup by a source and shared read-only afterwards.
type Index struct {
	docs []Document
}

// New creates an index over the given documents.
func New(docs []Document) *Index {
	return &Index{docs: docs}
}

// Documents returns the indexed documents for scanning. Callers must not
// mutate the returned slice.
func (ix *Index) Documents() []Document {
	if ix == nil {
		return nil
	}
	return ix.docs
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.docs)
}
