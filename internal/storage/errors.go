package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

// ErrObjectNotFound is returned by GetObject when the export artifact is gone,
// for example after a session cleanup or a retention purge.
var ErrObjectNotFound = errors.New("object not found")

// IsNoSuchKey 判断错误是否表示对象不存在（NoSuchKey/NotFound）。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrObjectNotFound) {
		return true
	}
	if code, ok := minioCode(err); ok {
		return code == "nosuchkey" || code == "notfound"
	}

	// 兜底：网关可能把错误包装成字符串。只匹配 S3 的固定文案，避免误判。
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchkey") ||
		strings.Contains(lower, "specified key does not exist")
}

// IsNoSuchBucket 判断错误是否明确表示 Bucket 不存在（S3/MinIO: NoSuchBucket）。
func IsNoSuchBucket(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := minioCode(err); ok {
		return code == "nosuchbucket"
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchbucket") ||
		strings.Contains(lower, "specified bucket does not exist")
}

func minioCode(err error) (string, bool) {
	var minioErr minio.ErrorResponse
	if !errors.As(err, &minioErr) || strings.TrimSpace(minioErr.Code) == "" {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(minioErr.Code)), true
}
