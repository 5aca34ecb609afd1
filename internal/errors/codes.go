package errors

// エラーコード定数
// 形式: CATEGORY_SPECIFIC_DETAIL
// フロントエンドはこのコードでメッセージを出し分ける

const (
	// ==================== 検証 (VALIDATION_) ====================
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // 不正なID
	ValidationInvalidFacet = "VALIDATION_INVALID_FACET" // 不明な絞り込み条件

	// ==================== リソース (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND" // リソースなし

	// ==================== 会場 (VENUE_) ====================
	VenueNotFound = "VENUE_NOT_FOUND" // 会場なし

	// ==================== 会場データ (DATASET_) ====================
	DatasetLoadFailed = "DATASET_LOAD_FAILED" // 読み込み失敗 (再試行可)
	DatasetLoading    = "DATASET_LOADING"     // 読み込み中
	DatasetSuperseded = "DATASET_SUPERSEDED"  // 新しい読み込みに置き換え

	// ==================== 比較 (COMPARISON_) ====================
	ComparisonSelectionFull = "COMPARISON_SELECTION_FULL" // 比較上限

	// ==================== レート制限 (RATE_) ====================
	RateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	// ==================== 内部エラー (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR" // サーバーエラー
	InternalExternalAPI = "INTERNAL_EXTERNAL_API" // 外部サービスエラー
)
