package check

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/seedman/internal/model"
	"github.com/hitoshi/seedman/internal/repository"
	"github.com/hitoshi/seedman/internal/security"
)

// URLテンプレートのプレースホルダ
const (
	placeholderPostID    = "{post-id}"
	placeholderGroupID   = "{group-id}"
	placeholderTimeCheck = "{time_check}"
)

// CommentFetchResult はコメント一覧フェッチの結果。
// レスポンスは意図的に未パースのまま保持する。パースはProcessorの責務であり、
// パースが後で失敗しても生レスポンスを監査ログに残せるようにするため。
type CommentFetchResult struct {
	RequestURL  string
	RawResponse string
}

// GroupFetchResult はグループ投稿フェッチの1グループ分の結果。
type GroupFetchResult struct {
	GroupID     string
	RequestURL  string
	RawResponse string
}

// Fetcher は外部API（Facebook Graph API）からコメント・投稿を取得する。
// URLテンプレートとアクセストークンはsettingsテーブルから呼び出しごとに読み込む。
// 外部へのリクエストはSSRF検証済みクライアントで行う。
type Fetcher struct {
	settings    repository.SettingsRepository
	ssrfGuard   security.SSRFGuardService
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(
	settings repository.SettingsRepository,
	ssrfGuard security.SSRFGuardService,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
) *Fetcher {
	return &Fetcher{
		settings:    settings,
		ssrfGuard:   ssrfGuard,
		logger:      logger,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// FetchComments は指定Facebook投稿のコメント一覧を取得する。
// URLテンプレートの {post-id} を置換し、アクセストークンをクエリパラメータとして
// 付与してGETする。非2xxレスポンスはレスポンスボディを含むエラーとして返す。
// HTTPエラーの場合でも、リクエストURLと生ボディを保持した結果を合わせて返す
// （呼び出し側が監査ログに記録するため）。
func (f *Fetcher) FetchComments(ctx context.Context, fbPostID string) (*CommentFetchResult, error) {
	template, token, err := f.loadSettings(ctx, repository.SettingKeyCommentURLTemplate)
	if err != nil {
		return nil, err
	}

	requestURL, err := f.buildURL(strings.ReplaceAll(template, placeholderPostID, fbPostID), token)
	if err != nil {
		return nil, err
	}

	body, err := f.get(ctx, requestURL)
	result := &CommentFetchResult{RequestURL: requestURL, RawResponse: body}
	if err != nil {
		return result, err
	}
	return result, nil
}

// FetchGroupPosts は複数グループの投稿一覧を取得する。
// グループごとに {group-id} と {time_check} を置換した1リクエストを発行する。
// 単一グループの失敗はログに記録してスキップし、残りのグループは処理を続行する
// （部分失敗の許容はグループ単位のみ）。設定エラーは全体を中断する。
func (f *Fetcher) FetchGroupPosts(ctx context.Context, groupIDs []string, timeWindow string) ([]GroupFetchResult, error) {
	template, token, err := f.loadSettings(ctx, repository.SettingKeyApprovalURLTemplate)
	if err != nil {
		return nil, err
	}

	results := make([]GroupFetchResult, 0, len(groupIDs))
	for _, groupID := range groupIDs {
		substituted := strings.ReplaceAll(template, placeholderGroupID, groupID)
		substituted = strings.ReplaceAll(substituted, placeholderTimeCheck, timeWindow)

		requestURL, err := f.buildURL(substituted, token)
		if err != nil {
			f.logger.Error("グループ投稿のリクエストURL構築に失敗しました",
				slog.String("group_id", groupID),
				slog.String("error", err.Error()),
			)
			continue
		}

		body, err := f.get(ctx, requestURL)
		if err != nil {
			f.logger.Error("グループ投稿のフェッチに失敗しました",
				slog.String("group_id", groupID),
				slog.String("request_url", requestURL),
				slog.String("error", err.Error()),
			)
			continue
		}

		results = append(results, GroupFetchResult{
			GroupID:     groupID,
			RequestURL:  requestURL,
			RawResponse: body,
		})
	}

	return results, nil
}

// loadSettings はURLテンプレートとアクセストークンを設定テーブルから読み込む。
// 未登録の場合はネットワークエラーではなく設定エラーとして即座に失敗する。
func (f *Fetcher) loadSettings(ctx context.Context, templateKey string) (template, token string, err error) {
	template, err = f.settings.Get(ctx, templateKey)
	if err != nil {
		return "", "", fmt.Errorf("URLテンプレートの読み込みに失敗しました: %w", err)
	}
	if template == "" {
		return "", "", model.NewSettingMissingError(templateKey)
	}

	token, err = f.settings.Get(ctx, repository.SettingKeyAccessToken)
	if err != nil {
		return "", "", fmt.Errorf("アクセストークンの読み込みに失敗しました: %w", err)
	}
	if token == "" {
		return "", "", model.NewSettingMissingError(repository.SettingKeyAccessToken)
	}

	return template, token, nil
}

// buildURL は展開済みテンプレートにアクセストークンを付与し、SSRF検証を行う。
func (f *Fetcher) buildURL(expanded, token string) (string, error) {
	parsed, err := url.Parse(expanded)
	if err != nil {
		return "", fmt.Errorf("URLテンプレートのパースに失敗しました: %w", err)
	}

	q := parsed.Query()
	q.Set("access_token", token)
	parsed.RawQuery = q.Encode()

	requestURL := parsed.String()
	if err := f.ssrfGuard.ValidateURL(requestURL); err != nil {
		f.logger.Error("SSRF検証に失敗しました",
			slog.String("error", err.Error()),
		)
		return "", model.NewSSRFBlockedError()
	}

	return requestURL, nil
}

// get は1回のGETリクエストを実行し、レスポンスボディを文字列で返す。
// 非2xxの場合はボディを診断用にエラーメッセージへ含め、ボディ自体も返す。
func (f *Fetcher) get(ctx context.Context, requestURL string) (string, error) {
	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxBodySize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "Seedman/1.0 Seeding Checker")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return "", fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return string(body), fmt.Errorf("外部APIがステータス %d を返しました: %s", resp.StatusCode, string(body))
	}

	return string(body), nil
}
