package export

import "errors"

var (
	// ErrNoRenderTarget: 没有已挂载且非空的渲染目标，导出在任何 I/O 之前中止。
	ErrNoRenderTarget = errors.New("no render target mounted")
	// ErrCaptureFailure: 截图、解码或编码失败，不会产出任何部分文件。
	ErrCaptureFailure = errors.New("capture failed")
	// ErrExportInProgress is returned when another export is still running.
	ErrExportInProgress = errors.New("export already in progress")

	ErrUnsupportedFormat = errors.New("unsupported export format")
)
