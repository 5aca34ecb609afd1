package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ikkim/venue-backend/internal/app/service"
	"gorm.io/gorm"
)

// ErrorInfo エラー情報
type ErrorInfo struct {
	Status    int    // HTTPステータス
	Code      string // エラーコード (codes.go 参照)
	Message   string // ユーザー向けメッセージ
	Retryable bool   // 再試行で回復しうるか
}

// ParseError maps err to a response. Internal details never reach Message.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: "サーバーエラーが発生しました",
		}
	}

	// 1. ドメインエラー
	switch {
	case service.IsLoadError(err):
		return ErrorInfo{
			Status:    http.StatusServiceUnavailable,
			Code:      DatasetLoadFailed,
			Message:   "会場データの読み込みに失敗しました。再読み込みしてください",
			Retryable: true,
		}
	case errors.Is(err, service.ErrDatasetLoading), errors.Is(err, service.ErrDatasetNotLoaded):
		return ErrorInfo{
			Status:    http.StatusServiceUnavailable,
			Code:      DatasetLoading,
			Message:   "会場データを読み込み中です。しばらくしてから再度お試しください",
			Retryable: true,
		}
	case errors.Is(err, service.ErrLoadSuperseded):
		return ErrorInfo{
			Status:  http.StatusConflict,
			Code:    DatasetSuperseded,
			Message: "より新しい読み込みが開始されました",
		}
	case errors.Is(err, service.ErrSelectionFull):
		return ErrorInfo{
			Status:  http.StatusConflict,
			Code:    ComparisonSelectionFull,
			Message: service.ErrSelectionFull.Error(),
		}
	case errors.Is(err, service.ErrVenueNotFound):
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    VenueNotFound,
			Message: service.ErrVenueNotFound.Error(),
		}
	case errors.Is(err, service.ErrInvalidFacet):
		return ErrorInfo{
			Status:  http.StatusBadRequest,
			Code:    ValidationInvalidFacet,
			Message: service.ErrInvalidFacet.Error(),
		}
	}

	// 2. GORM
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 3. ネットワーク/接続
	errStrLower := strings.ToLower(err.Error())
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Status:    http.StatusBadGateway,
			Code:      InternalExternalAPI,
			Message:   "外部サービスへの接続に失敗しました。しばらくしてから再度お試しください",
			Retryable: true,
		}
	}

	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "venue") || strings.Contains(contextLower, "会場") {
		return "会場が見つかりません"
	}
	return "要求されたデータが見つかりません"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "export") || strings.Contains(contextLower, "出力") {
		return "比較表の出力中にエラーが発生しました。しばらくしてから再度お試しください"
	}
	if strings.Contains(contextLower, "selection") || strings.Contains(contextLower, "比較") {
		return "比較リストの更新中にエラーが発生しました。しばらくしてから再度お試しください"
	}
	return "サーバーエラーが発生しました。しばらくしてから再度お試しください"
}
