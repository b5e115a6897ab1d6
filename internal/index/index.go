package index

// DocumentIndex is the set of index operations consumers depend on.
type DocumentIndex interface {
	UpsertDocument(d DocumentRow, body string) error
	DeleteDocument(path string) error
	GetDocument(path string) (*DocumentRow, error)
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListDocuments(limit, offset int, sort string) ([]DocumentRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

var _ DocumentIndex = (*DB)(nil)
