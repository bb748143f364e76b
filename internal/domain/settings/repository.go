package settings

import "context"

// Repository is the persistence collaborator behind the store.
// Load of a never-written store returns an empty Record and no error.
type Repository interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
}
