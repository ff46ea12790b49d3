package types

// FileRecord is one (path, content) pair extracted from a model reply
type FileRecord struct {
	Path    string
	Content string
}

// DuplicateWarning records that a later record replaced an earlier one for the same path
type DuplicateWarning struct {
	Path       string
	ChunkIndex int // chunk whose record won
}

// Result maps output paths to content for one refactor job.
// Keys are unique by construction: Put overwrites instead of failing.
type Result struct {
	files    map[string]string
	order    []string // first-insertion order of paths
	Warnings []DuplicateWarning
}

// NewResult creates an empty result
func NewResult() *Result {
	return &Result{
		files: make(map[string]string),
	}
}

// Put stores content under path and reports whether an existing entry was replaced
func (r *Result) Put(path, content string) bool {
	_, exists := r.files[path]
	if !exists {
		r.order = append(r.order, path)
	}
	r.files[path] = content
	return exists
}

// Get returns the content stored for path
func (r *Result) Get(path string) (string, bool) {
	content, ok := r.files[path]
	return content, ok
}

// Len returns the number of distinct paths
func (r *Result) Len() int {
	return len(r.files)
}

// Paths returns the paths in first-insertion order
func (r *Result) Paths() []string {
	paths := make([]string, len(r.order))
	copy(paths, r.order)
	return paths
}

// Files returns the records in first-insertion order with their final content
func (r *Result) Files() []FileRecord {
	records := make([]FileRecord, 0, len(r.order))
	for _, path := range r.order {
		records = append(records, FileRecord{Path: path, Content: r.files[path]})
	}
	return records
}

// Map returns a copy of the path to content mapping
func (r *Result) Map() map[string]string {
	m := make(map[string]string, len(r.files))
	for k, v := range r.files {
		m[k] = v
	}
	return m
}
