package repository

import (
	"errors"

	"github.com/lib/pq"
)

// isInvalidUUIDInput はuuidカラムへの不正な入力形式エラー（SQLSTATE 22P02）を判定する。
// パスパラメータ由来の任意文字列をuuidカラムと比較するクエリでは、
// 形式不正なIDを行不在と同じ扱いにする。
func isInvalidUUIDInput(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}
