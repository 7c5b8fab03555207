package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/seedman/internal/model"
)

// PostgresObservedCommentRepo はPostgreSQLを使用した観測コメントリポジトリ。
type PostgresObservedCommentRepo struct {
	db *sql.DB
}

// NewPostgresObservedCommentRepo はPostgresObservedCommentRepoを生成する。
func NewPostgresObservedCommentRepo(db *sql.DB) *PostgresObservedCommentRepo {
	return &PostgresObservedCommentRepo{db: db}
}

// FindByNaturalKey は自然キーで観測コメントを検索する。見つからない場合はnilを返す。
func (r *PostgresObservedCommentRepo) FindByNaturalKey(ctx context.Context, postID, externalCommentID string) (*model.ObservedComment, error) {
	c := &model.ObservedComment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, post_id, external_comment_id, content, content_normalized, observed_at
		 FROM observed_comments WHERE post_id = $1 AND external_comment_id = $2`,
		postID, externalCommentID,
	).Scan(&c.ID, &c.PostID, &c.ExternalCommentID, &c.Content, &c.ContentNormalized, &c.ObservedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("観測コメントの検索に失敗しました: %w", err)
	}
	return c, nil
}

// Insert は観測コメントを挿入する。
func (r *PostgresObservedCommentRepo) Insert(ctx context.Context, comment *model.ObservedComment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO observed_comments (id, post_id, external_comment_id, content,
		                                content_normalized, observed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.PostID, comment.ExternalCommentID,
		comment.Content, comment.ContentNormalized, comment.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("観測コメントの挿入に失敗しました: %w", err)
	}
	return nil
}

// Update は観測コメントの内容と観測時刻を更新する。
func (r *PostgresObservedCommentRepo) Update(ctx context.Context, comment *model.ObservedComment) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE observed_comments SET content = $2, content_normalized = $3, observed_at = $4
		 WHERE id = $1`,
		comment.ID, comment.Content, comment.ContentNormalized, comment.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("観測コメントの更新に失敗しました: %w", err)
	}
	return nil
}

// ListByPost は指定対象の観測コメント一覧を返す。
func (r *PostgresObservedCommentRepo) ListByPost(ctx context.Context, postID string) ([]*model.ObservedComment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, external_comment_id, content, content_normalized, observed_at
		 FROM observed_comments WHERE post_id = $1`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("観測コメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var comments []*model.ObservedComment
	for rows.Next() {
		c := &model.ObservedComment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.ExternalCommentID, &c.Content, &c.ContentNormalized, &c.ObservedAt); err != nil {
			return nil, fmt.Errorf("観測コメントの読み出しに失敗しました: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("観測コメント一覧の走査に失敗しました: %w", err)
	}
	return comments, nil
}

// PostgresObservedPostRepo はPostgreSQLを使用した観測グループ投稿リポジトリ。
type PostgresObservedPostRepo struct {
	db *sql.DB
}

// NewPostgresObservedPostRepo はPostgresObservedPostRepoを生成する。
func NewPostgresObservedPostRepo(db *sql.DB) *PostgresObservedPostRepo {
	return &PostgresObservedPostRepo{db: db}
}

// FindByNaturalKey は自然キーで観測投稿を検索する。見つからない場合はnilを返す。
func (r *PostgresObservedPostRepo) FindByNaturalKey(ctx context.Context, postID, externalPostID, groupID string) (*model.ObservedPost, error) {
	p := &model.ObservedPost{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, post_id, external_post_id, group_id, content, content_normalized, observed_at
		 FROM observed_posts WHERE post_id = $1 AND external_post_id = $2 AND group_id = $3`,
		postID, externalPostID, groupID,
	).Scan(&p.ID, &p.PostID, &p.ExternalPostID, &p.GroupID, &p.Content, &p.ContentNormalized, &p.ObservedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("観測投稿の検索に失敗しました: %w", err)
	}
	return p, nil
}

// Insert は観測投稿を挿入する。
func (r *PostgresObservedPostRepo) Insert(ctx context.Context, post *model.ObservedPost) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO observed_posts (id, post_id, external_post_id, group_id, content,
		                             content_normalized, observed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		post.ID, post.PostID, post.ExternalPostID, post.GroupID,
		post.Content, post.ContentNormalized, post.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("観測投稿の挿入に失敗しました: %w", err)
	}
	return nil
}

// Update は観測投稿の内容と観測時刻を更新する。
func (r *PostgresObservedPostRepo) Update(ctx context.Context, post *model.ObservedPost) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE observed_posts SET content = $2, content_normalized = $3, observed_at = $4
		 WHERE id = $1`,
		post.ID, post.Content, post.ContentNormalized, post.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("観測投稿の更新に失敗しました: %w", err)
	}
	return nil
}

// ListByPost は指定対象の観測投稿一覧を返す。
func (r *PostgresObservedPostRepo) ListByPost(ctx context.Context, postID string) ([]*model.ObservedPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, external_post_id, group_id, content, content_normalized, observed_at
		 FROM observed_posts WHERE post_id = $1`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("観測投稿一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var posts []*model.ObservedPost
	for rows.Next() {
		p := &model.ObservedPost{}
		if err := rows.Scan(&p.ID, &p.PostID, &p.ExternalPostID, &p.GroupID, &p.Content, &p.ContentNormalized, &p.ObservedAt); err != nil {
			return nil, fmt.Errorf("観測投稿の読み出しに失敗しました: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("観測投稿一覧の走査に失敗しました: %w", err)
	}
	return posts, nil
}
