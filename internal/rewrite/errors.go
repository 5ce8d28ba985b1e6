package rewrite

import "errors"

var (
	// ErrParseFailure 表示生成结果不是预期结构的 JSON，文档保持不变。
	ErrParseFailure = errors.New("rewrite response is not valid")
	// ErrRewriteRequest 表示生成调用本身失败（网络或非 2xx），文档保持不变。
	ErrRewriteRequest = errors.New("rewrite request failed")
	// ErrRewriteInProgress is returned when a rewrite is already running for
	// the same document.
	ErrRewriteInProgress = errors.New("rewrite already in progress")
)
