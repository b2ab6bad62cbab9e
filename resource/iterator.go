package resource

// Iterator is a restartable, finite sequence of resources. The engine
// traverses it once per phase, calling Reset between phases. Next is only
// ever called from the engine's coordinator; implementations need no
// internal locking.
type Iterator interface {
	// Next returns the next resource. The second return value is false when
	// the sequence is exhausted.
	Next() (Resource, bool, error)

	// Reset rewinds the iterator to the first resource. Resetting an
	// already-rewound iterator is a no-op.
	Reset() error

	// Len returns the total number of resources, or -1 if unknown. The
	// value may be approximate; it is used for progress reporting only.
	Len() int
}

// CompositeIterator chains several iterators into one sequence, traversing
// them in order.
type CompositeIterator struct {
	iterators []Iterator
	current   int
}

// NewCompositeIterator creates an iterator over all given iterators
func NewCompositeIterator(iterators ...Iterator) *CompositeIterator {
	return &CompositeIterator{iterators: iterators}
}

// Next returns the next resource from the current iterator, advancing to
// the next iterator when one is exhausted
func (c *CompositeIterator) Next() (Resource, bool, error) {
	for c.current < len(c.iterators) {
		res, ok, err := c.iterators[c.current].Next()
		if err != nil {
			return nil, false, err
		}
		if ok {
			return res, true, nil
		}
		c.current++
	}
	return nil, false, nil
}

// Reset rewinds all chained iterators
func (c *CompositeIterator) Reset() error {
	for _, it := range c.iterators {
		if err := it.Reset(); err != nil {
			return err
		}
	}
	c.current = 0
	return nil
}

// Len sums the lengths of all chained iterators; unknown if any is unknown
func (c *CompositeIterator) Len() int {
	total := 0
	for _, it := range c.iterators {
		n := it.Len()
		if n < 0 {
			return -1
		}
		total += n
	}
	return total
}
