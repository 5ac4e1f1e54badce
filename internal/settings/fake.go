package settings

import "io/fs"

// FakeStore is an in-memory Store for tests.
type FakeStore struct {
	// Raw is returned by Load when set.
	Raw []byte

	// LoadError, if set, will be returned by Load. When neither Raw nor
	// LoadError is set, Load reports fs.ErrNotExist.
	LoadError error

	// SaveError, if set, will be returned by Save.
	SaveError error

	// Saved contains every snapshot passed to Save.
	Saved []Settings
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// Load returns the configured document or fs.ErrNotExist.
func (f *FakeStore) Load() ([]byte, error) {
	if f.LoadError != nil {
		return nil, f.LoadError
	}
	if f.Raw == nil {
		return nil, fs.ErrNotExist
	}
	return f.Raw, nil
}

// Save records the snapshot.
func (f *FakeStore) Save(s Settings) error {
	if f.SaveError != nil {
		return f.SaveError
	}
	f.Saved = append(f.Saved, s.Clone())
	return nil
}
