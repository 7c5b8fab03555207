package check

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hitoshi/seedman/internal/model"
	"github.com/hitoshi/seedman/internal/repository"
)

// Comparator は観測行と期待行を突き合わせ、期待行の状態を更新する。
//
// マッチング方針はバリアントごとに異なり、意図的に統一していない:
//   - コメント確認: 正規化後の完全一致
//   - キーワード確認: 正規化後のキーワードが観測本文に部分一致で含まれるか
//
// 既知の挙動: 観測行が空の場合（フェッチが空振りした場合を含む）、
// すべての期待行がnot-found側に更新される。前回の状態は保持されない。
// これは元システムの挙動をそのまま保存したものであり、修正していない。
type Comparator struct {
	seedComments     repository.SeedCommentRepository
	keywords         repository.KeywordRepository
	observedComments repository.ObservedCommentRepository
	observedPosts    repository.ObservedPostRepository
	logger           *slog.Logger
}

// NewComparator はComparatorの新しいインスタンスを生成する。
func NewComparator(
	seedComments repository.SeedCommentRepository,
	keywords repository.KeywordRepository,
	observedComments repository.ObservedCommentRepository,
	observedPosts repository.ObservedPostRepository,
	logger *slog.Logger,
) *Comparator {
	return &Comparator{
		seedComments:     seedComments,
		keywords:         keywords,
		observedComments: observedComments,
		observedPosts:    observedPosts,
		logger:           logger,
	}
}

// CompareComments はシードコメントの掲載有無を判定し、状態を更新する。
// 判定は存在判定であり、複数の観測コメントが一致しても1件として数える。
func (c *Comparator) CompareComments(ctx context.Context, postID string) (*model.CompareResult, error) {
	observed, err := c.observedComments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	// 正規化済み本文の集合を作る（完全一致判定）
	observedSet := make(map[string]struct{}, len(observed))
	for _, o := range observed {
		observedSet[o.ContentNormalized] = struct{}{}
	}

	expected, err := c.seedComments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	result := &model.CompareResult{Total: len(expected)}
	for _, e := range expected {
		_, found := observedSet[Normalize(e.Content)]

		status := model.SeedCommentStatusNotVisible
		if found {
			status = model.SeedCommentStatusVisible
			result.Found++
		} else {
			result.NotFound++
		}

		if err := c.seedComments.UpdateStatus(ctx, e.ID, status); err != nil {
			return nil, err
		}
	}

	c.logger.Info("コメント比較が完了しました",
		slog.String("post_id", postID),
		slog.Int("found", result.Found),
		slog.Int("not_found", result.NotFound),
		slog.Int("total", result.Total),
	)

	return result, nil
}

// CompareKeywords はキーワードの検出有無を判定し、状態を更新する。
// 正規化済みキーワードが、いずれかの観測投稿の正規化済み本文に
// 部分文字列として含まれれば検出とみなす。
func (c *Comparator) CompareKeywords(ctx context.Context, postID string) (*model.CompareResult, error) {
	observed, err := c.observedPosts.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	expected, err := c.keywords.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	result := &model.CompareResult{Total: len(expected)}
	for _, e := range expected {
		normalized := Normalize(e.Content)

		found := false
		for _, o := range observed {
			if strings.Contains(o.ContentNormalized, normalized) {
				found = true
				break
			}
		}

		status := model.KeywordStatusNotFound
		if found {
			status = model.KeywordStatusFound
			result.Found++
		} else {
			result.NotFound++
		}

		if err := c.keywords.UpdateStatus(ctx, e.ID, status); err != nil {
			return nil, err
		}
	}

	c.logger.Info("キーワード比較が完了しました",
		slog.String("post_id", postID),
		slog.Int("found", result.Found),
		slog.Int("not_found", result.NotFound),
		slog.Int("total", result.Total),
	)

	return result, nil
}
