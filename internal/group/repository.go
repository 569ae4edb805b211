package group

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adhamj/settleup/pkg/money"
)

// Repository handles group data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new group and its initial members in one transaction.
// The creator is always the first member.
func (r *Repository) Create(ctx context.Context, creatorID int64, name string, memberIDs []int64) (*Group, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	g := &Group{}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO groups (name, created_by) VALUES ($1, $2)
		 RETURNING id, name, created_by, seq, created_at`,
		name, creatorID,
	).Scan(&g.ID, &g.Name, &g.CreatedBy, &g.Seq, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	ids := append([]int64{creatorID}, memberIDs...)
	seen := make(map[int64]bool, len(ids))
	for _, userID := range ids {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`,
			g.ID, userID); err != nil {
			return nil, fmt.Errorf("failed to add group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit group: %w", err)
	}

	return g, nil
}

// GetByID retrieves a group by its ID. Returns nil when not found.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Group, error) {
	g := &Group{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_by, seq, created_at FROM groups WHERE id = $1`,
		id,
	).Scan(&g.ID, &g.Name, &g.CreatedBy, &g.Seq, &g.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// ListByUserID retrieves all groups the user belongs to
func (r *Repository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Group, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.created_by, g.seq, g.created_at
		 FROM groups g
		 JOIN group_members gm ON g.id = gm.group_id
		 WHERE gm.user_id = $1
		 ORDER BY g.created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		g := &Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.Seq, &g.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, total, rows.Err()
}

// ListMembers retrieves the group's members in join order with their
// materialized balances.
func (r *Repository) ListMembers(ctx context.Context, groupID int64) ([]*Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT gm.id, gm.group_id, gm.user_id, gm.is_temporary, gm.deletion_condition,
		        gm.expires_at, gm.joined_at, u.username, COALESCE(gb.balance, 0)
		 FROM group_members gm
		 JOIN users u ON u.id = gm.user_id
		 LEFT JOIN group_balances gb ON gb.group_id = gm.group_id AND gb.user_id = gm.user_id
		 WHERE gm.group_id = $1
		 ORDER BY gm.id`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m := &Member{}
		var cond sql.NullString
		var expires sql.NullTime
		var balance int64
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.IsTemporary, &cond,
			&expires, &m.JoinedAt, &m.Username, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if cond.Valid {
			dc := DeletionCondition(cond.String)
			m.DeletionCondition = &dc
		}
		if expires.Valid {
			t := expires.Time
			m.ExpiresAt = &t
		}
		m.Balance = money.Cents(balance)
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetMember retrieves one membership. Returns nil when the user is not in
// the group.
func (r *Repository) GetMember(ctx context.Context, groupID, userID int64) (*Member, error) {
	m := &Member{}
	var cond sql.NullString
	var expires sql.NullTime
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`SELECT gm.id, gm.group_id, gm.user_id, gm.is_temporary, gm.deletion_condition,
		        gm.expires_at, gm.joined_at, u.username, COALESCE(gb.balance, 0)
		 FROM group_members gm
		 JOIN users u ON u.id = gm.user_id
		 LEFT JOIN group_balances gb ON gb.group_id = gm.group_id AND gb.user_id = gm.user_id
		 WHERE gm.group_id = $1 AND gm.user_id = $2`,
		groupID, userID,
	).Scan(&m.ID, &m.GroupID, &m.UserID, &m.IsTemporary, &cond,
		&expires, &m.JoinedAt, &m.Username, &balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if cond.Valid {
		dc := DeletionCondition(cond.String)
		m.DeletionCondition = &dc
	}
	if expires.Valid {
		t := expires.Time
		m.ExpiresAt = &t
	}
	m.Balance = money.Cents(balance)
	return m, nil
}

// AddMember inserts a membership row
func (r *Repository) AddMember(ctx context.Context, m *Member) (*Member, error) {
	var cond interface{}
	if m.DeletionCondition != nil {
		cond = string(*m.DeletionCondition)
	}
	var expires interface{}
	if m.ExpiresAt != nil {
		expires = *m.ExpiresAt
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO group_members (group_id, user_id, is_temporary, deletion_condition, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, joined_at`,
		m.GroupID, m.UserID, m.IsTemporary, cond, expires,
	).Scan(&m.ID, &m.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return m, nil
}

// RemoveMember removes a member in one transaction: the member's balance
// is written off (an explicit non-conservation event), their membership
// row is deleted, and every historical transaction referencing them is
// annotated for audit readability. Amounts are never altered.
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID int64, annotation string, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT seq FROM groups WHERE id = $1 FOR UPDATE`, groupID).Scan(&seq)
	if err == sql.ErrNoRows {
		return ErrGroupNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock group: %w", err)
	}

	var balance int64
	err = tx.QueryRowContext(ctx,
		`DELETE FROM group_balances WHERE group_id = $1 AND user_id = $2 RETURNING balance`,
		groupID, userID).Scan(&balance)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to discard balance: %w", err)
	}
	if balance != 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO balance_writeoffs (group_id, user_id, amount, annotation, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			groupID, userID, balance, annotation, now); err != nil {
			return fmt.Errorf("failed to record balance writeoff: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check member removal: %w", err)
	}
	if n == 0 {
		return ErrMemberNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions
		 SET annotation = CASE WHEN annotation = '' THEN $3
		                       ELSE annotation || '; ' || $3 END
		 WHERE group_id = $1
		   AND (paid_by = $2 OR from_user = $2 OR to_user = $2
		        OR id IN (SELECT transaction_id FROM transaction_shares WHERE user_id = $2))`,
		groupID, userID, annotation); err != nil {
		return fmt.Errorf("failed to annotate transactions: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE groups SET seq = $2 WHERE id = $1`, groupID, seq+1); err != nil {
		return fmt.Errorf("failed to bump group sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit member removal: %w", err)
	}

	return nil
}
