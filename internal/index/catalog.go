package index

// Catalog is what the converter and the read side need from the conversion
// catalog. Consumers depend on this rather than *DB.
type Catalog interface {
	Upsert(e Entry, body string, links []string) error
	Delete(source string) error
	Get(source string) (*Entry, error)
	GetByDest(dest string) (*Entry, error)
	Checksum(source string) (string, error)
	Checksums() (map[string]string, error)
	List(f ListFilter) ([]Entry, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Backlinks(target string) ([]string, error)
	Close() error
}

var _ Catalog = (*DB)(nil)
