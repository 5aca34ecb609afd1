package service

import (
	"errors"

	"github.com/ikkim/venue-backend/internal/app/repository"
)

var (
	ErrVenueNotFound    = repository.ErrVenueNotFound
	ErrLoadSuperseded   = repository.ErrLoadSuperseded
	ErrDatasetNotLoaded = repository.ErrNotLoaded

	ErrDatasetLoading = errors.New("会場データを読み込み中です")
	ErrSelectionFull  = errors.New("比較できる会場は最大5件までです")
	ErrInvalidFacet   = errors.New("絞り込み条件が正しくありません")
)

// LoadError is re-exported so callers branch on one package.
type LoadError = repository.LoadError

// IsLoadError reports whether err carries a dataset load failure.
func IsLoadError(err error) bool {
	var loadErr *LoadError
	return errors.As(err, &loadErr)
}
