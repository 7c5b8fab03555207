package check

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/seedman/internal/model"
)

type stubFetchService struct {
	commentResult *CommentFetchResult
	commentErr    error
	groupResults  []GroupFetchResult
	groupErr      error
}

func (s *stubFetchService) FetchComments(context.Context, string) (*CommentFetchResult, error) {
	return s.commentResult, s.commentErr
}

func (s *stubFetchService) FetchGroupPosts(context.Context, []string, string) ([]GroupFetchResult, error) {
	return s.groupResults, s.groupErr
}

type stubProcessService struct {
	err error
}

func (s *stubProcessService) ProcessComments(context.Context, string, string) (int, int, error) {
	return 0, 0, s.err
}

func (s *stubProcessService) ProcessGroupPosts(context.Context, string, []GroupFetchResult) (int, int, error) {
	return 0, 0, s.err
}

type stubCompareService struct {
	result *model.CompareResult
	err    error
}

func (s *stubCompareService) CompareComments(context.Context, string) (*model.CompareResult, error) {
	return s.result, s.err
}

func (s *stubCompareService) CompareKeywords(context.Context, string) (*model.CompareResult, error) {
	return s.result, s.err
}

type failingCheckLogRepo struct{}

func (failingCheckLogRepo) Insert(context.Context, *model.CheckLog) error {
	return errors.New("insert failed")
}

func commentPost() *model.TrackedPost {
	return &model.TrackedPost{
		ID:         "post-1",
		ExternalID: "fb-123",
		CheckType:  model.CheckTypeComment,
	}
}

func approvalPost() *model.TrackedPost {
	return &model.TrackedPost{
		ID:         "post-1",
		GroupIDs:   []string{"g1", "g2"},
		CheckType:  model.CheckTypeApproval,
		TimeWindow: "24h",
	}
}

func TestPipeline_Run_Comment(t *testing.T) {
	fetch := &stubFetchService{
		commentResult: &CommentFetchResult{RequestURL: "https://example.com/c", RawResponse: `{"data":[]}`},
	}
	compare := &stubCompareService{result: &model.CompareResult{Found: 2, NotFound: 1, Total: 3}}
	logs := &fakeCheckLogRepo{}
	metrics := &fakeMetrics{}

	pipeline := NewPipeline(fetch, &stubProcessService{}, compare, logs, metrics, testLogger())

	result, err := pipeline.Run(context.Background(), commentPost())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Found != 2 || result.NotFound != 1 || result.Total != 3 {
		t.Errorf("result = %+v, want found:2 not_found:1 total:3", result)
	}

	// 成功時も監査ログは必ず1行
	if len(logs.logs) != 1 {
		t.Fatalf("監査ログ行数 = %d, want 1", len(logs.logs))
	}
	entry := logs.logs[0]
	if entry.Status != model.CheckLogStatusSuccess {
		t.Errorf("Status = %s, want %s", entry.Status, model.CheckLogStatusSuccess)
	}
	if entry.RequestURL != "https://example.com/c" || entry.RawResponse != `{"data":[]}` {
		t.Errorf("監査ログにリクエストURLと生レスポンスが保持されていません: %+v", entry)
	}

	if metrics.successes != 1 || metrics.failures != 0 {
		t.Errorf("metrics: successes = %d, failures = %d, want 1, 0", metrics.successes, metrics.failures)
	}
	if metrics.matched != 2 {
		t.Errorf("metrics: matched = %d, want 2", metrics.matched)
	}
	if metrics.latencies != 1 {
		t.Errorf("metrics: latencies = %d, want 1", metrics.latencies)
	}
}

// フェッチがHTTPエラーでも、返された生レスポンスを監査ログに残す。
func TestPipeline_Run_Comment_FetchError(t *testing.T) {
	fetch := &stubFetchService{
		commentResult: &CommentFetchResult{RequestURL: "https://example.com/c", RawResponse: `{"error":"bad token"}`},
		commentErr:    errors.New("外部APIがステータス 400 を返しました"),
	}
	logs := &fakeCheckLogRepo{}
	metrics := &fakeMetrics{}

	pipeline := NewPipeline(fetch, &stubProcessService{}, &stubCompareService{}, logs, metrics, testLogger())

	if _, err := pipeline.Run(context.Background(), commentPost()); err == nil {
		t.Fatal("Run() error = nil, want fetch error")
	}

	if len(logs.logs) != 1 {
		t.Fatalf("監査ログ行数 = %d, want 1", len(logs.logs))
	}
	entry := logs.logs[0]
	if entry.Status != model.CheckLogStatusError {
		t.Errorf("Status = %s, want %s", entry.Status, model.CheckLogStatusError)
	}
	if entry.RawResponse != `{"error":"bad token"}` {
		t.Errorf("RawResponse = %q, エラーボディが監査ログに残っていません", entry.RawResponse)
	}
	if entry.ErrorMessage == "" {
		t.Error("ErrorMessage が空です")
	}
	if metrics.failures != 1 {
		t.Errorf("metrics: failures = %d, want 1", metrics.failures)
	}
}

// パース失敗時も、フェッチ済みの生レスポンスを監査ログに残す。
func TestPipeline_Run_Comment_ProcessError(t *testing.T) {
	fetch := &stubFetchService{
		commentResult: &CommentFetchResult{RequestURL: "https://example.com/c", RawResponse: "<html>"},
	}
	process := &stubProcessService{err: model.NewParseFailedError("JSONではありません")}
	logs := &fakeCheckLogRepo{}

	pipeline := NewPipeline(fetch, process, &stubCompareService{}, logs, &fakeMetrics{}, testLogger())

	if _, err := pipeline.Run(context.Background(), commentPost()); err == nil {
		t.Fatal("Run() error = nil, want parse error")
	}

	if len(logs.logs) != 1 {
		t.Fatalf("監査ログ行数 = %d, want 1", len(logs.logs))
	}
	if logs.logs[0].RawResponse != "<html>" {
		t.Errorf("RawResponse = %q, want %q", logs.logs[0].RawResponse, "<html>")
	}
}

func TestPipeline_Run_Approval(t *testing.T) {
	fetch := &stubFetchService{
		groupResults: []GroupFetchResult{
			{GroupID: "g1", RequestURL: "https://example.com/g1", RawResponse: `{"data":[]}`},
			{GroupID: "g2", RequestURL: "https://example.com/g2", RawResponse: `{"data":[]}`},
		},
	}
	compare := &stubCompareService{result: &model.CompareResult{Found: 1, NotFound: 0, Total: 1}}
	logs := &fakeCheckLogRepo{}

	pipeline := NewPipeline(fetch, &stubProcessService{}, compare, logs, &fakeMetrics{}, testLogger())

	result, err := pipeline.Run(context.Background(), approvalPost())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Found != 1 {
		t.Errorf("Found = %d, want 1", result.Found)
	}

	// 複数グループのフェッチでも監査ログは1行にまとまる
	if len(logs.logs) != 1 {
		t.Fatalf("監査ログ行数 = %d, want 1", len(logs.logs))
	}
	entry := logs.logs[0]
	wantURL := "https://example.com/g1\nhttps://example.com/g2"
	if entry.RequestURL != wantURL {
		t.Errorf("RequestURL = %q, want %q", entry.RequestURL, wantURL)
	}
	if !strings.Contains(entry.RawResponse, `"GroupID":"g1"`) || !strings.Contains(entry.RawResponse, `"GroupID":"g2"`) {
		t.Errorf("RawResponse = %q, 全グループの結果が含まれていません", entry.RawResponse)
	}
}

func TestPipeline_Run_UnknownCheckType(t *testing.T) {
	logs := &fakeCheckLogRepo{}
	metrics := &fakeMetrics{}

	pipeline := NewPipeline(&stubFetchService{}, &stubProcessService{}, &stubCompareService{}, logs, metrics, testLogger())

	post := &model.TrackedPost{ID: "post-1", CheckType: model.CheckType("likes_check")}
	_, err := pipeline.Run(context.Background(), post)
	if err == nil {
		t.Fatal("Run() error = nil, want check type error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCheckTypeUnknown {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeCheckTypeUnknown)
	}
	if len(logs.logs) != 1 {
		t.Errorf("監査ログ行数 = %d, want 1", len(logs.logs))
	}
	if metrics.failures != 1 {
		t.Errorf("metrics: failures = %d, want 1", metrics.failures)
	}
}

// 監査ログの追記失敗は確認処理自体の成否に影響しない。
func TestPipeline_Run_LogInsertFailure(t *testing.T) {
	fetch := &stubFetchService{
		commentResult: &CommentFetchResult{RequestURL: "https://example.com/c", RawResponse: `{"data":[]}`},
	}
	compare := &stubCompareService{result: &model.CompareResult{Total: 0}}

	pipeline := NewPipeline(fetch, &stubProcessService{}, compare, failingCheckLogRepo{}, &fakeMetrics{}, testLogger())

	if _, err := pipeline.Run(context.Background(), commentPost()); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "設定不足", err: model.NewSettingMissingError("fb_access_token"), want: "config"},
		{name: "SSRF拒否", err: model.NewSSRFBlockedError(), want: "config"},
		{name: "パース失敗", err: model.NewParseFailedError("bad json"), want: "parse"},
		{name: "不明な確認種別", err: model.NewCheckTypeUnknownError("likes_check"), want: "check_type"},
		{name: "その他", err: errors.New("connection refused"), want: "fetch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failureReason(tt.err); got != tt.want {
				t.Errorf("failureReason() = %q, want %q", got, tt.want)
			}
		})
	}
}
