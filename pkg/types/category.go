package types

import "fmt"

// Category identifies one of the seven fixed groupings a source construct can land in.
// The zero value is not a valid category.
type Category int

const (
	CategoryImports Category = iota + 1
	CategoryInitialization
	CategoryModels
	CategoryUtils
	CategoryRoutes
	CategoryMain
	CategoryOthers
)

// AllCategories lists every category in packing order.
var AllCategories = [...]Category{
	CategoryImports,
	CategoryInitialization,
	CategoryModels,
	CategoryUtils,
	CategoryRoutes,
	CategoryMain,
	CategoryOthers,
}

// String returns the bucket name used in section headers and reports
func (c Category) String() string {
	switch c {
	case CategoryImports:
		return "Imports"
	case CategoryInitialization:
		return "Initialization"
	case CategoryModels:
		return "Models"
	case CategoryUtils:
		return "Utils"
	case CategoryRoutes:
		return "Routes"
	case CategoryMain:
		return "Main"
	case CategoryOthers:
		return "Others"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Valid reports whether c is one of the seven known categories
func (c Category) Valid() bool {
	return c >= CategoryImports && c <= CategoryOthers
}

// index maps a category to its slot in Buckets
func (c Category) index() int {
	return int(c) - 1
}

// Buckets holds one ordered fragment list per category.
// Fragments keep first-seen insertion order.
type Buckets struct {
	slots [len(AllCategories)][]string
}

// NewBuckets creates an empty set of buckets
func NewBuckets() *Buckets {
	return &Buckets{}
}

// Add appends a fragment to the bucket of the given category.
// Uniqueness across buckets is the caller's concern (see analyzer's dedup set).
func (b *Buckets) Add(c Category, fragment string) error {
	if !c.Valid() {
		return fmt.Errorf("%w: unknown category %d", ErrInvalidCategory, int(c))
	}
	b.slots[c.index()] = append(b.slots[c.index()], fragment)
	return nil
}

// Get returns the fragments of a category in insertion order
func (b *Buckets) Get(c Category) []string {
	if !c.Valid() {
		return nil
	}
	return b.slots[c.index()]
}

// Len returns the total number of fragments across all buckets
func (b *Buckets) Len() int {
	n := 0
	for _, slot := range b.slots {
		n += len(slot)
	}
	return n
}

// Counts returns the number of fragments per category name
func (b *Buckets) Counts() map[string]int {
	counts := make(map[string]int, len(AllCategories))
	for _, c := range AllCategories {
		counts[c.String()] = len(b.Get(c))
	}
	return counts
}

// Each calls fn for every category in packing order, including empty ones
func (b *Buckets) Each(fn func(c Category, fragments []string)) {
	for _, c := range AllCategories {
		fn(c, b.Get(c))
	}
}
