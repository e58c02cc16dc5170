package errors

import "errors"

// ErrUnknownContainer 未知的引用容器类型（仅 update / meeting_note）
var ErrUnknownContainer = errors.New("未知的引用容器类型")
