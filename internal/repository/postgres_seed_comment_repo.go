package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/seedman/internal/model"
)

// PostgresSeedCommentRepo はPostgreSQLを使用したシードコメントリポジトリ。
type PostgresSeedCommentRepo struct {
	db *sql.DB
}

// NewPostgresSeedCommentRepo はPostgresSeedCommentRepoを生成する。
func NewPostgresSeedCommentRepo(db *sql.DB) *PostgresSeedCommentRepo {
	return &PostgresSeedCommentRepo{db: db}
}

// ListByPost は指定対象のシードコメント一覧を返す。
func (r *PostgresSeedCommentRepo) ListByPost(ctx context.Context, postID string) ([]*model.SeedComment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, content, status, created_at, updated_at
		 FROM seed_comments WHERE post_id = $1 ORDER BY created_at ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("シードコメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var comments []*model.SeedComment
	for rows.Next() {
		c := &model.SeedComment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.Content, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("シードコメントの読み出しに失敗しました: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("シードコメント一覧の走査に失敗しました: %w", err)
	}
	return comments, nil
}

// Create はシードコメントを作成する。
func (r *PostgresSeedCommentRepo) Create(ctx context.Context, comment *model.SeedComment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO seed_comments (id, post_id, content, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.PostID, comment.Content, comment.Status,
		comment.CreatedAt, comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("シードコメントの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus はシードコメントの掲載確認結果を更新する。
func (r *PostgresSeedCommentRepo) UpdateStatus(ctx context.Context, id string, status model.SeedCommentStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE seed_comments SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("シードコメント状態の更新に失敗しました: %w", err)
	}
	return nil
}
