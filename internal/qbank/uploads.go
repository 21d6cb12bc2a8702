package qbank

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrUploadDiscarded 上传完成时目标内容块已被删除或会话已关闭
var ErrUploadDiscarded = errors.New("upload discarded: target no longer exists")

// ImageResult 图床返回结果，只保存 secure_url
type ImageResult struct {
	SecureURL string `json:"secure_url"`
}

type ImageHost interface {
	UploadImage(ctx context.Context, name string, r io.Reader, size int64, contentType string) (ImageResult, error)
}

// UploadFunc 执行一次上传，返回图片地址
type UploadFunc func(ctx context.Context) (string, error)

// CompleteFunc 上传结束后回调；被取消的任务收到 ErrUploadDiscarded
type CompleteFunc func(url string, err error)

// UploadTracker 按内容块ID跟踪进行中的上传任务，每个任务可单独取消
type UploadTracker struct {
	mu       sync.Mutex
	closed   bool
	seq      uint64
	inflight map[string]map[uint64]context.CancelFunc
	wg       sync.WaitGroup
}

func NewUploadTracker() *UploadTracker {
	return &UploadTracker{inflight: make(map[string]map[uint64]context.CancelFunc)}
}

// Start 异步执行上传；tracker 已关闭时返回 false 且不启动任务
func (u *UploadTracker) Start(parent context.Context, blockID string, run UploadFunc, done CompleteFunc) bool {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(parent)
	u.seq++
	id := u.seq
	if u.inflight[blockID] == nil {
		u.inflight[blockID] = make(map[uint64]context.CancelFunc)
	}
	u.inflight[blockID][id] = cancel
	u.wg.Add(1)
	u.mu.Unlock()

	go func() {
		defer u.wg.Done()
		url, err := run(ctx)

		u.mu.Lock()
		discarded := u.closed || ctx.Err() != nil
		u.forget(blockID, id)
		u.mu.Unlock()
		cancel()

		if discarded {
			done("", ErrUploadDiscarded)
			return
		}
		done(url, err)
	}()
	return true
}

func (u *UploadTracker) forget(blockID string, id uint64) {
	tasks := u.inflight[blockID]
	if tasks == nil {
		return
	}
	delete(tasks, id)
	if len(tasks) == 0 {
		delete(u.inflight, blockID)
	}
}

// CancelBlocks 删除题目或内容块后取消其上所有进行中的上传
func (u *UploadTracker) CancelBlocks(blockIDs ...string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, b := range blockIDs {
		for _, cancel := range u.inflight[b] {
			cancel()
		}
	}
}

func (u *UploadTracker) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, tasks := range u.inflight {
		n += len(tasks)
	}
	return n
}

// Close 取消全部任务，之后的完成回调都会被丢弃
func (u *UploadTracker) Close() {
	u.mu.Lock()
	u.closed = true
	for _, tasks := range u.inflight {
		for _, cancel := range tasks {
			cancel()
		}
	}
	u.mu.Unlock()
}

// Wait 等待所有已启动的任务结束
func (u *UploadTracker) Wait() {
	u.wg.Wait()
}
