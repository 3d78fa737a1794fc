// Package cleanup は期限切れリフレッシュトークンの自動削除ジョブを提供する。
// expires_atを過ぎたトークンを日次バッチで削除する。
// ログアウトやローテーションで削除されなかったトークン行が
// 無期限に蓄積するのを防ぐ。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TokenStore は期限切れトークンの一括削除を抽象化するインターフェース。
type TokenStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupJob は期限切れリフレッシュトークンの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	tokens TokenStore
	logger *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(tokens TokenStore, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		tokens: tokens,
		logger: logger,
	}
}

// Run は期限切れリフレッシュトークンを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.tokens.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("token cleanup job failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("token cleanup job completed",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
