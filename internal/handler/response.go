// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mizuno/cardbox/internal/middleware"
	"github.com/mizuno/cardbox/internal/model"
)

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// handleServiceError はサービス層から返されたエラーをHTTPレスポンスに変換する。
// APIErrorはKindに応じたステータスコードとなり、メッセージはそのまま
// {"error": message} としてクライアントへ透過される。
// APIError以外のエラーは上流障害（500）として扱い、メッセージは破棄しない。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapErrorKindToHTTPStatus(apiErr.Kind), apiErr.Message)
		return
	}

	slog.Error("unhandled service error", slog.String("error", err.Error()))
	middleware.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
}

// mapErrorKindToHTTPStatus はエラー分類からHTTPステータスコードにマッピングする。
func mapErrorKindToHTTPStatus(kind model.ErrorKind) int {
	switch kind {
	case model.KindUnauthenticated:
		return http.StatusUnauthorized
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
