package check

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/seedman/internal/model"
	"github.com/hitoshi/seedman/internal/repository"
	"github.com/hitoshi/seedman/internal/security"
)

// graphListPayload はGraph APIの一覧レスポンスの想定形。
// コメント一覧・グループ投稿一覧とも data 配列に {id, message} を持つ。
type graphListPayload struct {
	Data []graphEntry `json:"data"`
}

// graphEntry はGraph APIの一覧レスポンスの1要素。
type graphEntry struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Processor は生レスポンスを観測行に正規化して永続化する。
// 本文はタグ除去の後にNFC正規化＋小文字化し、自然キーでUPSERTする。
// 同じ生レスポンスの再処理は冪等となる。
type Processor struct {
	observedComments repository.ObservedCommentRepository
	observedPosts    repository.ObservedPostRepository
	sanitizer        security.TextSanitizerService
	logger           *slog.Logger
}

// NewProcessor はProcessorの新しいインスタンスを生成する。
func NewProcessor(
	observedComments repository.ObservedCommentRepository,
	observedPosts repository.ObservedPostRepository,
	sanitizer security.TextSanitizerService,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		observedComments: observedComments,
		observedPosts:    observedPosts,
		sanitizer:        sanitizer,
		logger:           logger,
	}
}

// ProcessComments はコメント一覧の生レスポンスを解析し、観測コメントをUPSERTする。
// JSONのパース失敗またはdata配列の欠落はパースエラーとして返す。
// このステップは失敗時に生テキストを保持しないため、呼び出し側は
// Processorを呼ぶ前に生レスポンスを監査ログへ保存しておく責務を負う。
// 戻り値は挿入数、更新数、エラー。
func (p *Processor) ProcessComments(ctx context.Context, postID, rawResponse string) (inserted, updated int, err error) {
	entries, err := parseGraphList(rawResponse)
	if err != nil {
		return 0, 0, err
	}

	now := time.Now()
	for _, entry := range entries {
		content := p.sanitizer.SanitizeText(entry.Message)
		normalized := Normalize(content)

		existing, err := p.observedComments.FindByNaturalKey(ctx, postID, entry.ID)
		if err != nil {
			return inserted, updated, err
		}

		if existing == nil {
			comment := &model.ObservedComment{
				ID:                uuid.New().String(),
				PostID:            postID,
				ExternalCommentID: entry.ID,
				Content:           content,
				ContentNormalized: normalized,
				ObservedAt:        now,
			}
			if err := p.observedComments.Insert(ctx, comment); err != nil {
				return inserted, updated, err
			}
			inserted++
			continue
		}

		existing.Content = content
		existing.ContentNormalized = normalized
		existing.ObservedAt = now
		if err := p.observedComments.Update(ctx, existing); err != nil {
			return inserted, updated, err
		}
		updated++
	}

	p.logger.Info("観測コメントの処理が完了しました",
		slog.String("post_id", postID),
		slog.Int("inserted", inserted),
		slog.Int("updated", updated),
		slog.Int("total", len(entries)),
	)

	return inserted, updated, nil
}

// ProcessGroupPosts はグループ投稿フェッチ結果の一覧を解析し、観測投稿をUPSERTする。
// いずれかのグループの生レスポンスがパースできない場合はパースエラーとして返す。
// 戻り値は挿入数、更新数、エラー。
func (p *Processor) ProcessGroupPosts(ctx context.Context, postID string, results []GroupFetchResult) (inserted, updated int, err error) {
	now := time.Now()

	for _, result := range results {
		entries, err := parseGraphList(result.RawResponse)
		if err != nil {
			return inserted, updated, err
		}

		for _, entry := range entries {
			content := p.sanitizer.SanitizeText(entry.Message)
			normalized := Normalize(content)

			existing, err := p.observedPosts.FindByNaturalKey(ctx, postID, entry.ID, result.GroupID)
			if err != nil {
				return inserted, updated, err
			}

			if existing == nil {
				post := &model.ObservedPost{
					ID:                uuid.New().String(),
					PostID:            postID,
					ExternalPostID:    entry.ID,
					GroupID:           result.GroupID,
					Content:           content,
					ContentNormalized: normalized,
					ObservedAt:        now,
				}
				if err := p.observedPosts.Insert(ctx, post); err != nil {
					return inserted, updated, err
				}
				inserted++
				continue
			}

			existing.Content = content
			existing.ContentNormalized = normalized
			existing.ObservedAt = now
			if err := p.observedPosts.Update(ctx, existing); err != nil {
				return inserted, updated, err
			}
			updated++
		}
	}

	p.logger.Info("観測投稿の処理が完了しました",
		slog.String("post_id", postID),
		slog.Int("group_count", len(results)),
		slog.Int("inserted", inserted),
		slog.Int("updated", updated),
	)

	return inserted, updated, nil
}

// parseGraphList は生レスポンスをGraph APIの一覧形として解析する。
// JSONとして解析できない場合、またはdata配列が存在しない場合はパースエラーを返す。
func parseGraphList(rawResponse string) ([]graphEntry, error) {
	var payload graphListPayload
	if err := json.Unmarshal([]byte(rawResponse), &payload); err != nil {
		return nil, model.NewParseFailedError(err.Error())
	}
	if payload.Data == nil {
		return nil, model.NewParseFailedError("data配列がレスポンスに存在しません")
	}
	return payload.Data, nil
}
