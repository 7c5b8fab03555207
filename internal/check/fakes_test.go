package check

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/seedman/internal/model"
)

// testLogger はテスト用にログ出力を捨てるロガーを返す。
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- テスト用のインメモリフェイク実装 ---

type fakeSettingsRepo struct {
	values map[string]string
}

func (f *fakeSettingsRepo) Get(_ context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeSettingsRepo) Set(_ context.Context, key, value string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

type fakeSeedCommentRepo struct {
	comments []*model.SeedComment
	statuses map[string]model.SeedCommentStatus
}

func (f *fakeSeedCommentRepo) ListByPost(_ context.Context, postID string) ([]*model.SeedComment, error) {
	var out []*model.SeedComment
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSeedCommentRepo) Create(_ context.Context, comment *model.SeedComment) error {
	f.comments = append(f.comments, comment)
	return nil
}

func (f *fakeSeedCommentRepo) UpdateStatus(_ context.Context, id string, status model.SeedCommentStatus) error {
	if f.statuses == nil {
		f.statuses = map[string]model.SeedCommentStatus{}
	}
	f.statuses[id] = status
	return nil
}

type fakeKeywordRepo struct {
	keywords []*model.Keyword
	statuses map[string]model.KeywordStatus
}

func (f *fakeKeywordRepo) ListByPost(_ context.Context, postID string) ([]*model.Keyword, error) {
	var out []*model.Keyword
	for _, k := range f.keywords {
		if k.PostID == postID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeKeywordRepo) Create(_ context.Context, keyword *model.Keyword) error {
	f.keywords = append(f.keywords, keyword)
	return nil
}

func (f *fakeKeywordRepo) UpdateStatus(_ context.Context, id string, status model.KeywordStatus) error {
	if f.statuses == nil {
		f.statuses = map[string]model.KeywordStatus{}
	}
	f.statuses[id] = status
	return nil
}

type fakeObservedCommentRepo struct {
	byKey map[string]*model.ObservedComment
}

func obsCommentKey(postID, externalID string) string {
	return postID + "/" + externalID
}

func (f *fakeObservedCommentRepo) FindByNaturalKey(_ context.Context, postID, externalCommentID string) (*model.ObservedComment, error) {
	return f.byKey[obsCommentKey(postID, externalCommentID)], nil
}

func (f *fakeObservedCommentRepo) Insert(_ context.Context, comment *model.ObservedComment) error {
	if f.byKey == nil {
		f.byKey = map[string]*model.ObservedComment{}
	}
	f.byKey[obsCommentKey(comment.PostID, comment.ExternalCommentID)] = comment
	return nil
}

func (f *fakeObservedCommentRepo) Update(_ context.Context, comment *model.ObservedComment) error {
	f.byKey[obsCommentKey(comment.PostID, comment.ExternalCommentID)] = comment
	return nil
}

func (f *fakeObservedCommentRepo) ListByPost(_ context.Context, postID string) ([]*model.ObservedComment, error) {
	var out []*model.ObservedComment
	for _, c := range f.byKey {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeObservedPostRepo struct {
	byKey map[string]*model.ObservedPost
}

func obsPostKey(postID, externalPostID, groupID string) string {
	return postID + "/" + externalPostID + "/" + groupID
}

func (f *fakeObservedPostRepo) FindByNaturalKey(_ context.Context, postID, externalPostID, groupID string) (*model.ObservedPost, error) {
	return f.byKey[obsPostKey(postID, externalPostID, groupID)], nil
}

func (f *fakeObservedPostRepo) Insert(_ context.Context, post *model.ObservedPost) error {
	if f.byKey == nil {
		f.byKey = map[string]*model.ObservedPost{}
	}
	f.byKey[obsPostKey(post.PostID, post.ExternalPostID, post.GroupID)] = post
	return nil
}

func (f *fakeObservedPostRepo) Update(_ context.Context, post *model.ObservedPost) error {
	f.byKey[obsPostKey(post.PostID, post.ExternalPostID, post.GroupID)] = post
	return nil
}

func (f *fakeObservedPostRepo) ListByPost(_ context.Context, postID string) ([]*model.ObservedPost, error) {
	var out []*model.ObservedPost
	for _, p := range f.byKey {
		if p.PostID == postID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeCheckLogRepo struct {
	logs []*model.CheckLog
}

func (f *fakeCheckLogRepo) Insert(_ context.Context, log *model.CheckLog) error {
	f.logs = append(f.logs, log)
	return nil
}

type fakeMetrics struct {
	successes int
	failures  int
	matched   int
	latencies int
}

func (f *fakeMetrics) RecordCheckSuccess(string)         { f.successes++ }
func (f *fakeMetrics) RecordCheckFailure(string, string) { f.failures++ }
func (f *fakeMetrics) RecordRowsMatched(count int)       { f.matched += count }
func (f *fakeMetrics) RecordCheckLatency(time.Duration)  { f.latencies++ }

// stubSSRFGuard は検証を素通しするSSRFガード。
// httptestのループバックアドレスへ接続するために使用する。
type stubSSRFGuard struct {
	validateErr error
}

func (s *stubSSRFGuard) NewSafeClient(timeout time.Duration, _ int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (s *stubSSRFGuard) ValidateURL(string) error {
	return s.validateErr
}

// passthroughSanitizer はタグ除去を行わないサニタイザ。
type passthroughSanitizer struct{}

func (passthroughSanitizer) SanitizeText(raw string) string { return raw }
