// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/mizuno/cardbox/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// CreateWithProfile はユーザーとプロフィールを同一トランザクションで作成する。
	CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error
}

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// FindByUserID は指定ユーザーのプロフィールを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Profile, error)

	// UpdateAvatarURL はプロフィールのavatar_urlを更新する。
	UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error
}

// RefreshTokenRepository はリフレッシュトークンの永続化インターフェース。
type RefreshTokenRepository interface {
	// Create はリフレッシュトークンを保存する。
	Create(ctx context.Context, token *model.RefreshToken) error

	// FindByToken は指定トークンを取得する。期限切れまたは不在の場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)

	// DeleteByToken は指定トークンを削除する。ローテーション時に使用する。
	DeleteByToken(ctx context.Context, token string) error

	// DeleteExpired は期限切れトークンを一括削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// DeckRepository はデッキデータの永続化インターフェース。
type DeckRepository interface {
	// Create はデッキを作成する。owner_idは呼び出し側で設定済みであること。
	Create(ctx context.Context, deck *model.Deck) error

	// FindByID は指定IDのデッキを取得する。見つからない場合はnilを返す。
	// 可視性の判定は行わない（サービス層の責務）。
	FindByID(ctx context.Context, id string) (*model.Deck, error)

	// ListByOwnerID は指定ユーザーが所有するデッキをcreated_at降順で返す。
	ListByOwnerID(ctx context.Context, ownerID string) ([]*model.Deck, error)

	// SearchPublic は公開デッキを作成者ラベル付きでcreated_at降順で返す。
	// qが空でない場合、タイトルの部分一致（大文字小文字を区別しない）で絞り込む。
	// 非公開デッキはタイトルが一致しても決して含まれない。
	SearchPublic(ctx context.Context, q string) ([]*model.PublicDeck, error)

	// StatsByDeckID はデッキの集計統計（カード数・評価数・平均評価）を返す。
	StatsByDeckID(ctx context.Context, deckID string) (*model.DeckStats, error)
}

// CardRepository はカードデータの永続化インターフェース。
type CardRepository interface {
	// Create はカードを作成する。
	Create(ctx context.Context, card *model.Card) error

	// ListByDeckID は指定デッキのカード一覧をcreated_at昇順で返す。
	ListByDeckID(ctx context.Context, deckID string) ([]*model.Card, error)
}

// RatingRepository はデッキ評価の永続化インターフェース。
type RatingRepository interface {
	// Upsert は評価を冪等にUPSERTする。
	// 同一ユーザー・同一デッキの既存評価はスコアを上書きする。
	Upsert(ctx context.Context, rating *model.Rating) (*model.Rating, error)
}

// AvatarRepository はアバター画像の永続化インターフェース。
type AvatarRepository interface {
	// Create はアバター画像を保存する。
	Create(ctx context.Context, avatar *model.Avatar) error

	// FindLatestByUserID は指定ユーザーの最新アバターを取得する。
	// 見つからない場合はnilを返す。
	FindLatestByUserID(ctx context.Context, userID string) (*model.Avatar, error)
}
