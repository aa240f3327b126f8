package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// 一意制約違反。冪等なリプレイの合図として扱う
	ErrDuplicate = errors.New("duplicate key")
)
