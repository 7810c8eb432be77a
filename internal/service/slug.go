package service

import (
	"errors"

	"github.com/google/uuid"

	"github.com/tiendatttt234/GoGo-Be/internal/repository"
	"github.com/tiendatttt234/GoGo-Be/pkg/slug"
)

// saveWithSlug calls save with the slug derived from title. If that slug is
// taken it retries once with a random suffix and returns the slug that was
// stored.
func saveWithSlug(title string, save func(slug string) error) (string, error) {
	s := slug.Generate(title)
	err := save(s)
	if !errors.Is(err, repository.ErrSlugTaken) {
		return s, err
	}

	s = slug.WithSuffix(s, uuid.NewString()[:8])
	return s, save(s)
}
