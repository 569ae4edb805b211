package expense

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

// Ensure Repository implements the service's store boundary
var _ Store = (*Repository)(nil)

// Repository handles expense data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GroupMembers returns the users currently in the group keyed by ID
func (r *Repository) GroupMembers(ctx context.Context, groupID int64) (map[int64]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT gm.user_id, u.username
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}
	defer rows.Close()

	members := make(map[int64]string)
	for rows.Next() {
		var (
			id       int64
			username string
		)
		if err := rows.Scan(&id, &username); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members[id] = username
	}
	return members, rows.Err()
}

// AppendExpense appends the expense, applies balance deltas, deducts the
// payer's own share from their wallet when required, and bumps the group
// sequence — all in one database transaction. The row lock on the group
// serializes concurrent writers against the same group.
func (r *Repository) AppendExpense(ctx context.Context, e *ledger.Expense, deltas ledger.Balances, walletUserID int64, walletDeduct money.Cents) (*ledger.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT seq FROM groups WHERE id = $1 FOR UPDATE`, e.GroupID).Scan(&seq)
	if err == sql.ErrNoRows {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock group: %w", err)
	}

	if walletDeduct > 0 {
		res, err := tx.ExecContext(ctx,
			`UPDATE wallets SET balance = balance - $2 WHERE user_id = $1 AND balance >= $2`,
			walletUserID, int64(walletDeduct))
		if err != nil {
			return nil, fmt.Errorf("failed to deduct wallet: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to check wallet deduction: %w", err)
		}
		if n == 0 {
			return nil, ledger.ErrInsufficientWalletBalance
		}
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO transactions (uid, group_id, type, amount, paid_by, note, place, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		e.UID, e.GroupID, string(ledger.KindExpense), int64(e.Amount), e.PaidBy,
		e.Note, e.Place, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, s := range e.Shares {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_shares (transaction_id, user_id, amount) VALUES ($1, $2, $3)`,
			e.ID, s.UserID, int64(s.Amount)); err != nil {
			return nil, fmt.Errorf("failed to insert share: %w", err)
		}
	}

	if err := applyDeltas(ctx, tx, e.GroupID, deltas); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE groups SET seq = $2 WHERE id = $1`, e.GroupID, seq+1); err != nil {
		return nil, fmt.Errorf("failed to bump group sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense: %w", err)
	}

	return e, nil
}

// applyDeltas upserts the materialized per-member balances for a group.
func applyDeltas(ctx context.Context, tx *sql.Tx, groupID int64, deltas ledger.Balances) error {
	for userID, d := range deltas {
		if d == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_balances (group_id, user_id, balance) VALUES ($1, $2, $3)
			 ON CONFLICT (group_id, user_id)
			 DO UPDATE SET balance = group_balances.balance + EXCLUDED.balance`,
			groupID, userID, int64(d)); err != nil {
			return fmt.Errorf("failed to apply balance delta: %w", err)
		}
	}
	return nil
}

// RecentExpenses returns the group's expenses created at or after since
func (r *Repository) RecentExpenses(ctx context.Context, groupID int64, since time.Time) ([]*ledger.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, uid, group_id, amount, paid_by, note, place, annotation, created_at
		 FROM transactions
		 WHERE group_id = $1 AND type = $2 AND created_at >= $3
		 ORDER BY created_at DESC`,
		groupID, string(ledger.KindExpense), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent expenses: %w", err)
	}
	defer rows.Close()

	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, err
	}
	return r.attachShares(ctx, expenses)
}

// GetExpense retrieves a single expense with its shares
func (r *Repository) GetExpense(ctx context.Context, id int64) (*ledger.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, uid, group_id, amount, paid_by, note, place, annotation, created_at
		 FROM transactions WHERE id = $1 AND type = $2`,
		id, string(ledger.KindExpense))
	if err != nil {
		return nil, fmt.Errorf("failed to query expense: %w", err)
	}
	defer rows.Close()

	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, nil
	}
	expenses, err = r.attachShares(ctx, expenses)
	if err != nil {
		return nil, err
	}
	return expenses[0], nil
}

// ListExpensesByGroup returns a page of the group's expenses, newest first
func (r *Repository) ListExpensesByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*ledger.Expense, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE group_id = $1 AND type = $2`,
		groupID, string(ledger.KindExpense)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, uid, group_id, amount, paid_by, note, place, annotation, created_at
		 FROM transactions
		 WHERE group_id = $1 AND type = $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3 OFFSET $4`,
		groupID, string(ledger.KindExpense), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, 0, err
	}
	expenses, err = r.attachShares(ctx, expenses)
	if err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

func scanExpenses(rows *sql.Rows) ([]*ledger.Expense, error) {
	var expenses []*ledger.Expense
	for rows.Next() {
		e := &ledger.Expense{}
		var amount int64
		if err := rows.Scan(&e.ID, &e.UID, &e.GroupID, &amount, &e.PaidBy,
			&e.Note, &e.Place, &e.Annotation, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Amount = money.Cents(amount)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// attachShares loads the participant shares for a batch of expenses.
func (r *Repository) attachShares(ctx context.Context, expenses []*ledger.Expense) ([]*ledger.Expense, error) {
	if len(expenses) == 0 {
		return expenses, nil
	}
	ids := make([]int64, len(expenses))
	byID := make(map[int64]*ledger.Expense, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
		byID[e.ID] = e
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT transaction_id, user_id, amount FROM transaction_shares
		 WHERE transaction_id = ANY($1) ORDER BY id`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var txID, userID, amount int64
		if err := rows.Scan(&txID, &userID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		e := byID[txID]
		e.Shares = append(e.Shares, ledger.Share{UserID: userID, Amount: money.Cents(amount)})
	}
	return expenses, rows.Err()
}
