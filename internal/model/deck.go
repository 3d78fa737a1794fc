// Package model はドメインモデルを定義する。
package model

import "time"

// Deck はフラッシュカードのデッキを表す。
// OwnerIDは作成時にサーバー側で設定され、以後変更されない。
type Deck struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	IsPublic    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Card はデッキに属するフラッシュカード（表裏1組）を表す。
type Card struct {
	ID        string
	DeckID    string
	Front     string
	Back      string
	CreatedAt time.Time
}

// DeckOwner は公開カタログで表示するデッキ作成者のラベルを表す。
type DeckOwner struct {
	ID          string
	DisplayName string
}

// PublicDeck は公開カタログの1エントリを表す。
// デッキ情報に作成者ラベルを付加したもの。
type PublicDeck struct {
	Deck
	Owner DeckOwner
}

// Rating はユーザーによるデッキ評価（1〜5）を表す。
// 同一ユーザー・同一デッキの組は1件のみ（再評価は上書き）。
type Rating struct {
	ID        string
	DeckID    string
	UserID    string
	Score     int
	CreatedAt time.Time
}

// DeckStats はデッキの集計統計を表す。
// AvgRatingは評価が1件もない場合0となる。
type DeckStats struct {
	CardCount   int
	RatingCount int
	AvgRating   float64
}
