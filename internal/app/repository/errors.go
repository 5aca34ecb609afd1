package repository

import (
	"errors"
	"fmt"
)

var (
	ErrVenueNotFound  = errors.New("会場が見つかりません")
	ErrNotLoaded      = errors.New("会場データが読み込まれていません")
	ErrLoadSuperseded = errors.New("より新しい読み込みが開始されたため結果を破棄しました")
	ErrInvalidDataset = errors.New("会場データの形式が正しくありません")
)

// LoadMessage is the user-facing text for any dataset load failure.
const LoadMessage = "会場データの読み込みに失敗しました"

// LoadError reports a dataset that could not be fetched or failed
// validation. Source names the VenueSource that was read.
type LoadError struct {
	Source string
	Cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s (source=%s): %v", LoadMessage, e.Source, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
