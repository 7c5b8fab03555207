package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/seedman/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用したトラッキング対象リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// postColumns はトラッキング対象取得クエリで使用するカラムリスト。
const postColumns = `id, project_id, external_id, group_ids, check_type, status,
	is_active, check_frequency, time_window, last_checked_at, created_at, updated_at`

// scanPostRow は共通のScan処理。*sql.Rowと*sql.Rowsの両方を受ける。
type postScanner interface {
	Scan(dest ...any) error
}

func scanPost(row postScanner) (*model.TrackedPost, error) {
	post := &model.TrackedPost{}
	var groupIDs pq.StringArray
	var checkFrequency, timeWindow sql.NullString
	var lastCheckedAt sql.NullTime

	err := row.Scan(
		&post.ID, &post.ProjectID, &post.ExternalID, &groupIDs,
		&post.CheckType, &post.Status, &post.IsActive,
		&checkFrequency, &timeWindow, &lastCheckedAt,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.GroupIDs = []string(groupIDs)
	post.CheckFrequency = nullStringValue(checkFrequency)
	post.TimeWindow = nullStringValue(timeWindow)
	if lastCheckedAt.Valid {
		t := lastCheckedAt.Time
		post.LastCheckedAt = &t
	}
	return post, nil
}

// FindByID は指定IDのトラッキング対象を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.TrackedPost, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM tracked_posts WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("トラッキング対象の取得に失敗しました: %w", err)
	}
	return post, nil
}

// Create はトラッキング対象を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.TrackedPost) error {
	var lastCheckedAt any
	if post.LastCheckedAt != nil {
		lastCheckedAt = *post.LastCheckedAt
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tracked_posts (id, project_id, external_id, group_ids, check_type,
		                            status, is_active, check_frequency, time_window,
		                            last_checked_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		post.ID, post.ProjectID, post.ExternalID, pq.Array(post.GroupIDs),
		post.CheckType, post.Status, post.IsActive,
		nullString(post.CheckFrequency), nullString(post.TimeWindow),
		lastCheckedAt, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("トラッキング対象の作成に失敗しました: %w", err)
	}
	return nil
}

// NextForProject は指定プロジェクトで次に確認すべき対象を1件返す。
// last_checked_at ASC NULLS FIRST の順序付けにより、未確認の対象と
// 最も確認が古い対象が優先される。これが唯一の公平性メカニズムとなる。
func (r *PostgresPostRepo) NextForProject(ctx context.Context, projectID string) (*model.TrackedPost, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM tracked_posts
		 WHERE project_id = $1 AND status = 'checking'
		 ORDER BY last_checked_at ASC NULLS FIRST
		 LIMIT 1`,
		projectID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("次の確認対象の取得に失敗しました: %w", err)
	}
	return post, nil
}

// Claim は対象をクレームする（last_checked_atの条件付き更新）。
// 読み出し時点の値と一致した場合のみ更新が成立するため、
// 並行する実行が同じ対象を二重処理することはない。
func (r *PostgresPostRepo) Claim(ctx context.Context, id string, expected *time.Time) (bool, error) {
	var expectedVal any
	if expected != nil {
		expectedVal = *expected
	}

	var claimedID string
	err := r.db.QueryRowContext(ctx,
		`UPDATE tracked_posts SET last_checked_at = now(), updated_at = now()
		 WHERE id = $1 AND last_checked_at IS NOT DISTINCT FROM $2
		 RETURNING id`,
		id, expectedVal,
	).Scan(&claimedID)

	if err == sql.ErrNoRows {
		// 別の実行が先にクレームした（last_checked_atが既に変わっている）
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("確認対象のクレームに失敗しました: %w", err)
	}
	return true, nil
}

// ListActiveChecking は定期確認の候補をすべて返す。
func (r *PostgresPostRepo) ListActiveChecking(ctx context.Context) ([]*model.TrackedPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM tracked_posts
		 WHERE is_active = TRUE AND status = 'checking'
		 ORDER BY last_checked_at ASC NULLS FIRST`,
	)
	if err != nil {
		return nil, fmt.Errorf("定期確認候補の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var posts []*model.TrackedPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("定期確認候補の読み出しに失敗しました: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("定期確認候補の走査に失敗しました: %w", err)
	}
	return posts, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列値を取り出す。無効な場合は空文字列を返す。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
