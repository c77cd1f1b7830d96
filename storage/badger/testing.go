package badger

// NewMemoryIndexStore creates an in-memory backend with an index
// repository, for tests.
func NewMemoryIndexStore() (*IndexRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}
	return NewIndexRepository(backend), backend, nil
}
