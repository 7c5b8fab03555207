package check

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/seedman/internal/model"
	"github.com/hitoshi/seedman/internal/repository"
)

// FetchService は外部APIフェッチの実行インターフェース。
type FetchService interface {
	FetchComments(ctx context.Context, fbPostID string) (*CommentFetchResult, error)
	FetchGroupPosts(ctx context.Context, groupIDs []string, timeWindow string) ([]GroupFetchResult, error)
}

// ProcessService は観測行の正規化・永続化インターフェース。
type ProcessService interface {
	ProcessComments(ctx context.Context, postID, rawResponse string) (inserted, updated int, err error)
	ProcessGroupPosts(ctx context.Context, postID string, results []GroupFetchResult) (inserted, updated int, err error)
}

// CompareService は期待行と観測行の比較インターフェース。
type CompareService interface {
	CompareComments(ctx context.Context, postID string) (*model.CompareResult, error)
	CompareKeywords(ctx context.Context, postID string) (*model.CompareResult, error)
}

// MetricsRecorder は確認処理のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordCheckSuccess(checkType string)
	RecordCheckFailure(checkType string, reason string)
	RecordRowsMatched(count int)
	RecordCheckLatency(duration time.Duration)
}

// Pipeline はフェッチ→プロセス→比較を1対象分実行する。
// タスクランナーと定期スイープの両方がこの1本のパイプラインを共有し、
// 確認経路ごとの処理の重複を持たない。
// 成否にかかわらず、1回の実行につき監査ログを1行追記する。
type Pipeline struct {
	fetcher    FetchService
	processor  ProcessService
	comparator CompareService
	checkLogs  repository.CheckLogRepository
	metrics    MetricsRecorder
	logger     *slog.Logger
}

// NewPipeline はPipelineの新しいインスタンスを生成する。
func NewPipeline(
	fetcher FetchService,
	processor ProcessService,
	comparator CompareService,
	checkLogs repository.CheckLogRepository,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		processor:  processor,
		comparator: comparator,
		checkLogs:  checkLogs,
		metrics:    metrics,
		logger:     logger,
	}
}

// Run は対象のcheck_typeに応じたバリアントでパイプラインを実行する。
func (p *Pipeline) Run(ctx context.Context, post *model.TrackedPost) (*model.CompareResult, error) {
	start := time.Now()

	var result *model.CompareResult
	var err error

	switch post.CheckType {
	case model.CheckTypeComment:
		result, err = p.runComment(ctx, post)
	case model.CheckTypeApproval:
		result, err = p.runApproval(ctx, post)
	default:
		err = model.NewCheckTypeUnknownError(string(post.CheckType))
		p.writeLog(ctx, post, "", "", err)
	}

	duration := time.Since(start)
	p.metrics.RecordCheckLatency(duration)

	if err != nil {
		p.metrics.RecordCheckFailure(string(post.CheckType), failureReason(err))
		return nil, err
	}

	p.metrics.RecordCheckSuccess(string(post.CheckType))
	p.metrics.RecordRowsMatched(result.Found)

	p.logger.Info("確認パイプラインが完了しました",
		slog.String("post_id", post.ID),
		slog.String("check_type", string(post.CheckType)),
		slog.Int("found", result.Found),
		slog.Int("not_found", result.NotFound),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return result, nil
}

// runComment はコメント確認バリアントを実行する。
// フェッチ結果の生レスポンスは、Processorが失敗しても調査できるよう
// 処理の成否にかかわらず監査ログに残す。
func (p *Pipeline) runComment(ctx context.Context, post *model.TrackedPost) (*model.CompareResult, error) {
	fetched, err := p.fetcher.FetchComments(ctx, post.ExternalID)
	if err != nil {
		var requestURL, raw string
		if fetched != nil {
			requestURL = fetched.RequestURL
			raw = fetched.RawResponse
		}
		p.writeLog(ctx, post, requestURL, raw, err)
		return nil, err
	}

	if _, _, err := p.processor.ProcessComments(ctx, post.ID, fetched.RawResponse); err != nil {
		p.writeLog(ctx, post, fetched.RequestURL, fetched.RawResponse, err)
		return nil, err
	}

	result, err := p.comparator.CompareComments(ctx, post.ID)
	if err != nil {
		p.writeLog(ctx, post, fetched.RequestURL, fetched.RawResponse, err)
		return nil, err
	}

	p.writeLog(ctx, post, fetched.RequestURL, fetched.RawResponse, nil)
	return result, nil
}

// runApproval は承認確認バリアントを実行する。
// 複数グループの生レスポンスはJSONとして1行のログにまとめる。
func (p *Pipeline) runApproval(ctx context.Context, post *model.TrackedPost) (*model.CompareResult, error) {
	fetched, err := p.fetcher.FetchGroupPosts(ctx, post.GroupIDs, post.TimeWindow)
	if err != nil {
		p.writeLog(ctx, post, "", "", err)
		return nil, err
	}

	requestURL, raw := joinGroupResults(fetched)

	if _, _, err := p.processor.ProcessGroupPosts(ctx, post.ID, fetched); err != nil {
		p.writeLog(ctx, post, requestURL, raw, err)
		return nil, err
	}

	result, err := p.comparator.CompareKeywords(ctx, post.ID)
	if err != nil {
		p.writeLog(ctx, post, requestURL, raw, err)
		return nil, err
	}

	p.writeLog(ctx, post, requestURL, raw, nil)
	return result, nil
}

// writeLog は1回の確認試行につき1行の監査ログを追記する。
// ログの追記自体の失敗は確認処理の成否に影響させず、アプリケーションログのみに残す。
func (p *Pipeline) writeLog(ctx context.Context, post *model.TrackedPost, requestURL, rawResponse string, runErr error) {
	log := &model.CheckLog{
		ID:          uuid.New().String(),
		PostID:      post.ID,
		CheckType:   post.CheckType,
		Status:      model.CheckLogStatusSuccess,
		RequestURL:  requestURL,
		RawResponse: rawResponse,
		CreatedAt:   time.Now(),
	}
	if runErr != nil {
		log.Status = model.CheckLogStatusError
		log.ErrorMessage = runErr.Error()
	}

	if err := p.checkLogs.Insert(ctx, log); err != nil {
		p.logger.Error("監査ログの追記に失敗しました",
			slog.String("post_id", post.ID),
			slog.String("error", err.Error()),
		)
	}
}

// joinGroupResults は複数グループのフェッチ結果を監査ログ用に1組へまとめる。
func joinGroupResults(results []GroupFetchResult) (requestURL, raw string) {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.RequestURL)
	}

	encoded, err := json.Marshal(results)
	if err != nil {
		// GroupFetchResultは文字列のみのためここには到達しない
		encoded = []byte("[]")
	}

	return strings.Join(urls, "\n"), string(encoded)
}

// failureReason はメトリクスのラベル用にエラーを粗く分類する。
func failureReason(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case model.ErrCodeSettingMissing, model.ErrCodeSSRFBlocked:
			return "config"
		case model.ErrCodeParseFailed:
			return "parse"
		case model.ErrCodeCheckTypeUnknown:
			return "check_type"
		}
	}
	return "fetch"
}
