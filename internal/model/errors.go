// Package model はドメインモデルを定義する。
package model

// ErrorKind はゲート境界で正規化されたエラー分類を表す。
// 上流（認証・ストレージ）の雑多なエラー形状をこの閉じた列挙に正規化し、
// 元のメッセージは破棄せずMessageに保持する。
type ErrorKind string

const (
	// KindUnauthenticated はトークンの欠如・不正・検証不能を表す。
	// どのサブケースかはクライアントに開示しない（常に同一レスポンス）。
	KindUnauthenticated ErrorKind = "unauthenticated"
	// KindValidation はリクエストの形式不備・必須フィールド欠如を表す。
	KindValidation ErrorKind = "validation"
	// KindNotFound は参照されたリソースの不在を表す。
	// 可視性ポリシーにより不可視のリソースも不在として扱う。
	KindNotFound ErrorKind = "not_found"
	// KindUpstream は上記以外の上流障害を表す。メッセージはそのまま伝搬する。
	KindUpstream ErrorKind = "upstream"
)

// APIError は分類済みのサービスエラーを表す。
// ハンドラー層でHTTPステータスコードにマッピングされ、
// レスポンスボディは常に {"error": Message} となる。
type APIError struct {
	Kind    ErrorKind
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return e.Message
}

// NewUnauthenticatedError は認証エラーを生成する。
// メッセージは全サブケースで統一し、詳細を漏らさない。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Kind:    KindUnauthenticated,
		Message: "invalid or missing access token",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
	}
}

// NewNotFoundError はリソース不在エラーを生成する。
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: message,
	}
}

// NewUpstreamError は上流障害エラーを生成する。
// 元のエラーメッセージをそのまま保持し、クライアントへ透過する。
func NewUpstreamError(err error) *APIError {
	return &APIError{
		Kind:    KindUpstream,
		Message: err.Error(),
	}
}
