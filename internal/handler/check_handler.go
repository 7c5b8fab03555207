package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/seedman/internal/check"
	"github.com/hitoshi/seedman/internal/model"
	"github.com/hitoshi/seedman/internal/worker/sweep"
)

// SweepRunner は定期確認スイープの実行インターフェース。
type SweepRunner interface {
	// RunOnce は確認周期が到来した対象を1回スイープする。
	RunOnce(ctx context.Context) ([]sweep.ItemResult, error)
}

// FetchServiceInterface は確認ハンドラーが必要とするフェッチサービス。
type FetchServiceInterface interface {
	FetchComments(ctx context.Context, fbPostID string) (*check.CommentFetchResult, error)
	FetchGroupPosts(ctx context.Context, groupIDs []string, timeWindow string) ([]check.GroupFetchResult, error)
}

// ProcessServiceInterface は確認ハンドラーが必要とするプロセスサービス。
type ProcessServiceInterface interface {
	ProcessComments(ctx context.Context, postID, rawResponse string) (inserted, updated int, err error)
	ProcessGroupPosts(ctx context.Context, postID string, results []check.GroupFetchResult) (inserted, updated int, err error)
}

// CompareServiceInterface は確認ハンドラーが必要とする比較サービス。
type CompareServiceInterface interface {
	CompareComments(ctx context.Context, postID string) (*model.CompareResult, error)
	CompareKeywords(ctx context.Context, postID string) (*model.CompareResult, error)
}

// PostFinder はトラッキング対象の検索インターフェース。
type PostFinder interface {
	// FindByID は指定IDのトラッキング対象を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.TrackedPost, error)
}

// CheckHandler は確認処理のHTTPハンドラー。
// スイープの一括トリガーと、パイプラインの各段（フェッチ・プロセス・比較）を
// 個別に動かす手動トリガーを提供する。手動トリガーは設定やレスポンス形式の
// 調査に使用する。
type CheckHandler struct {
	sweeper    SweepRunner
	fetcher    FetchServiceInterface
	processor  ProcessServiceInterface
	comparator CompareServiceInterface
	posts      PostFinder
}

// NewCheckHandler はCheckHandlerを生成する。
func NewCheckHandler(
	sweeper SweepRunner,
	fetcher FetchServiceInterface,
	processor ProcessServiceInterface,
	comparator CompareServiceInterface,
	posts PostFinder,
) *CheckHandler {
	return &CheckHandler{
		sweeper:    sweeper,
		fetcher:    fetcher,
		processor:  processor,
		comparator: comparator,
		posts:      posts,
	}
}

// sweepResponse はスイープ実行のAPIレスポンス。
type sweepResponse struct {
	Message string             `json:"message"`
	Results []sweep.ItemResult `json:"results"`
}

// Sweep は確認周期が到来した対象を一括で確認する。
// 個別対象の失敗は結果の1要素として報告し、レスポンスは常に200。
// POST /api/checks/sweep
func (h *CheckHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	results, err := h.sweeper.RunOnce(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, sweepResponse{
		Message: "スイープを実行しました",
		Results: results,
	})
}

// fetchCommentsRequest はコメントフェッチリクエストのボディ。
type fetchCommentsRequest struct {
	FBPostID string `json:"fb_post_id"`
}

// fetchCommentsResponse はコメントフェッチのAPIレスポンス。
type fetchCommentsResponse struct {
	RequestURL  string `json:"request_url"`
	RawResponse string `json:"raw_response"`
}

// FetchComments は指定Facebook投稿のコメント一覧を取得して返す。
// POST /api/checks/comments/fetch
func (h *CheckHandler) FetchComments(w http.ResponseWriter, r *http.Request) {
	var req fetchCommentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.FBPostID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("fb_post_id が空です"))
		return
	}

	result, err := h.fetcher.FetchComments(r.Context(), req.FBPostID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, fetchCommentsResponse{
		RequestURL:  result.RequestURL,
		RawResponse: result.RawResponse,
	})
}

// fetchApprovalRequest はグループ投稿フェッチリクエストのボディ。
// time_checkを省略した場合は対象のtime_windowを使用する。
type fetchApprovalRequest struct {
	PostID    string `json:"post_id"`
	TimeCheck string `json:"time_check"`
}

// groupFetchResponse はグループ投稿フェッチの1グループ分のレスポンス。
type groupFetchResponse struct {
	GroupID     string `json:"group_id"`
	RequestURL  string `json:"request_url"`
	RawResponse string `json:"raw_response"`
}

// fetchApprovalResponse はグループ投稿フェッチのAPIレスポンス。
type fetchApprovalResponse struct {
	Results []groupFetchResponse `json:"results"`
}

// FetchApproval は対象の全グループの投稿一覧を取得して返す。
// POST /api/checks/approval/fetch
func (h *CheckHandler) FetchApproval(w http.ResponseWriter, r *http.Request) {
	var req fetchApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.PostID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("post_id が空です"))
		return
	}

	post, err := h.posts.FindByID(r.Context(), req.PostID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if post == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(req.PostID))
		return
	}

	timeWindow := req.TimeCheck
	if timeWindow == "" {
		timeWindow = post.TimeWindow
	}

	results, err := h.fetcher.FetchGroupPosts(r.Context(), post.GroupIDs, timeWindow)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]groupFetchResponse, 0, len(results))
	for _, result := range results {
		out = append(out, groupFetchResponse{
			GroupID:     result.GroupID,
			RequestURL:  result.RequestURL,
			RawResponse: result.RawResponse,
		})
	}

	writeJSONResponse(w, http.StatusOK, fetchApprovalResponse{Results: out})
}

// processCommentsRequest はコメントプロセスリクエストのボディ。
type processCommentsRequest struct {
	PostID      string `json:"post_id"`
	RawResponse string `json:"raw_response"`
}

// processResponse はプロセス実行のAPIレスポンス。
type processResponse struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// ProcessComments は生レスポンスを解析して観測コメントをUPSERTする。
// POST /api/checks/comments/process
func (h *CheckHandler) ProcessComments(w http.ResponseWriter, r *http.Request) {
	var req processCommentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.PostID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("post_id が空です"))
		return
	}

	inserted, updated, err := h.processor.ProcessComments(r.Context(), req.PostID, req.RawResponse)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, processResponse{Inserted: inserted, Updated: updated})
}

// processApprovalRequest はグループ投稿プロセスリクエストのボディ。
type processApprovalRequest struct {
	PostID string `json:"post_id"`
	Posts  []struct {
		GroupID     string `json:"group_id"`
		RequestURL  string `json:"request_url"`
		RawResponse string `json:"raw_response"`
	} `json:"posts"`
}

// ProcessApproval はグループ投稿の生レスポンスを解析して観測投稿をUPSERTする。
// POST /api/checks/approval/process
func (h *CheckHandler) ProcessApproval(w http.ResponseWriter, r *http.Request) {
	var req processApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.PostID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("post_id が空です"))
		return
	}

	results := make([]check.GroupFetchResult, 0, len(req.Posts))
	for _, p := range req.Posts {
		results = append(results, check.GroupFetchResult{
			GroupID:     p.GroupID,
			RequestURL:  p.RequestURL,
			RawResponse: p.RawResponse,
		})
	}

	inserted, updated, err := h.processor.ProcessGroupPosts(r.Context(), req.PostID, results)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, processResponse{Inserted: inserted, Updated: updated})
}

// compareRequest は比較リクエストのボディ。
type compareRequest struct {
	PostID string `json:"post_id"`
}

// Compare は対象の確認タイプに応じた比較を実行し、期待行の状態を更新する。
// POST /api/checks/compare
func (h *CheckHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.PostID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("post_id が空です"))
		return
	}

	post, err := h.posts.FindByID(r.Context(), req.PostID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if post == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(req.PostID))
		return
	}

	var result *model.CompareResult
	switch post.CheckType {
	case model.CheckTypeComment:
		result, err = h.comparator.CompareComments(r.Context(), post.ID)
	case model.CheckTypeApproval:
		result, err = h.comparator.CompareKeywords(r.Context(), post.ID)
	default:
		err = model.NewCheckTypeUnknownError(string(post.CheckType))
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}
