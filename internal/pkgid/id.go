// Package pkgid defines the package identifier used throughout pkgctl: a
// (name, uuid) pair, per spec §3. Either half may be absent on a
// caller-supplied spec; internal representations (manifest keys, depsmaps)
// require both.
package pkgid

import "github.com/google/uuid"

// ID is a fully resolved package identifier: both name and uuid present.
// It is comparable and safe to use as a map key.
type ID struct {
	Name string
	UUID uuid.UUID
}

func (id ID) String() string {
	return id.Name + "@" + id.UUID.String()
}

// New parses a uuid string and name into a resolved ID.
func New(name, rawUUID string) (ID, error) {
	u, err := uuid.Parse(rawUUID)
	if err != nil {
		return ID{}, err
	}
	return ID{Name: name, UUID: u}, nil
}

// NewRandom allocates a fresh random ID for a new self-identified project.
func NewRandom(name string) (ID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return ID{}, err
	}
	return ID{Name: name, UUID: u}, nil
}
