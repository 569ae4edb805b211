package settlement

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

// Repository handles payment and settlement-view data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GroupMemberList returns the group's members in join order
func (r *Repository) GroupMemberList(ctx context.Context, groupID int64) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT gm.user_id, u.username
		 FROM group_members gm
		 JOIN users u ON u.id = gm.user_id
		 WHERE gm.group_id = $1
		 ORDER BY gm.id`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Username); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// RecentPayments returns the group's payments created at or after since
func (r *Repository) RecentPayments(ctx context.Context, groupID int64, since time.Time) ([]*ledger.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, uid, group_id, amount, from_user, to_user, method, note, annotation, created_at
		 FROM transactions
		 WHERE group_id = $1 AND type = $2 AND created_at >= $3
		 ORDER BY created_at DESC`,
		groupID, string(ledger.KindPayment), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent payments: %w", err)
	}
	defer rows.Close()

	var payments []*ledger.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// AppendPayment appends the payment and applies balance deltas in one
// database transaction, serialized against other writers via the group
// row lock, bumping the group sequence.
func (r *Repository) AppendPayment(ctx context.Context, p *ledger.Payment, deltas ledger.Balances) (*ledger.Payment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT seq FROM groups WHERE id = $1 FOR UPDATE`, p.GroupID).Scan(&seq)
	if err == sql.ErrNoRows {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock group: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO transactions (uid, group_id, type, amount, from_user, to_user, method, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		p.UID, p.GroupID, string(ledger.KindPayment), int64(p.Amount),
		p.From, p.To, string(p.Method), p.Note, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	for userID, d := range deltas {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_balances (group_id, user_id, balance) VALUES ($1, $2, $3)
			 ON CONFLICT (group_id, user_id)
			 DO UPDATE SET balance = group_balances.balance + EXCLUDED.balance`,
			p.GroupID, userID, int64(d)); err != nil {
			return nil, fmt.Errorf("failed to apply balance delta: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE groups SET seq = $2 WHERE id = $1`, p.GroupID, seq+1); err != nil {
		return nil, fmt.Errorf("failed to bump group sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	return p, nil
}

// GroupTransactions loads the group's full transaction log in submission
// order, expenses with their shares attached.
func (r *Repository) GroupTransactions(ctx context.Context, groupID int64) ([]ledger.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, uid, group_id, type, amount, paid_by, from_user, to_user, method, note, place, annotation, created_at
		 FROM transactions
		 WHERE group_id = $1
		 ORDER BY id`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	var expenseIDs []int64
	expensesByID := make(map[int64]*ledger.Expense)

	for rows.Next() {
		var (
			id, amount               int64
			uid, txType              string
			grpID                    sql.NullInt64
			paidBy, fromUser, toUser sql.NullInt64
			method                   sql.NullString
			note, place, annotation  string
			createdAt                time.Time
		)
		if err := rows.Scan(&id, &uid, &grpID, &txType, &amount, &paidBy, &fromUser,
			&toUser, &method, &note, &place, &annotation, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		switch ledger.Kind(txType) {
		case ledger.KindExpense:
			e := &ledger.Expense{
				ID:         id,
				UID:        uid,
				GroupID:    grpID.Int64,
				PaidBy:     paidBy.Int64,
				Amount:     money.Cents(amount),
				Note:       note,
				Place:      place,
				Annotation: annotation,
				CreatedAt:  createdAt,
			}
			txs = append(txs, e)
			expenseIDs = append(expenseIDs, id)
			expensesByID[id] = e
		case ledger.KindPayment:
			txs = append(txs, &ledger.Payment{
				ID:         id,
				UID:        uid,
				GroupID:    grpID.Int64,
				From:       fromUser.Int64,
				To:         toUser.Int64,
				Amount:     money.Cents(amount),
				Method:     ledger.PaymentMethod(method.String),
				Note:       note,
				Annotation: annotation,
				CreatedAt:  createdAt,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	if len(expenseIDs) > 0 {
		shareRows, err := r.db.QueryContext(ctx,
			`SELECT transaction_id, user_id, amount FROM transaction_shares
			 WHERE transaction_id = ANY($1) ORDER BY id`,
			pq.Array(expenseIDs))
		if err != nil {
			return nil, fmt.Errorf("failed to query shares: %w", err)
		}
		defer shareRows.Close()

		for shareRows.Next() {
			var txID, userID, amount int64
			if err := shareRows.Scan(&txID, &userID, &amount); err != nil {
				return nil, fmt.Errorf("failed to scan share: %w", err)
			}
			e := expensesByID[txID]
			e.Shares = append(e.Shares, ledger.Share{UserID: userID, Amount: money.Cents(amount)})
		}
		if err := shareRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate shares: %w", err)
		}
	}

	return txs, nil
}

// GroupBalances returns the materialized balance cache for a group
func (r *Repository) GroupBalances(ctx context.Context, groupID int64) (ledger.Balances, error) {
	return r.balanceMap(ctx,
		`SELECT user_id, balance FROM group_balances WHERE group_id = $1`, groupID)
}

// BalanceWriteoffs returns balances discarded by member removal
func (r *Repository) BalanceWriteoffs(ctx context.Context, groupID int64) (ledger.Balances, error) {
	return r.balanceMap(ctx,
		`SELECT user_id, amount FROM balance_writeoffs WHERE group_id = $1`, groupID)
}

func (r *Repository) balanceMap(ctx context.Context, query string, groupID int64) (ledger.Balances, error) {
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	balances := make(ledger.Balances)
	for rows.Next() {
		var userID, balance int64
		if err := rows.Scan(&userID, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances[userID] += money.Cents(balance)
	}
	return balances, rows.Err()
}

func scanPayment(rows *sql.Rows) (*ledger.Payment, error) {
	p := &ledger.Payment{}
	var amount int64
	var fromUser, toUser sql.NullInt64
	var method sql.NullString
	if err := rows.Scan(&p.ID, &p.UID, &p.GroupID, &amount, &fromUser, &toUser,
		&method, &p.Note, &p.Annotation, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	p.Amount = money.Cents(amount)
	p.From = fromUser.Int64
	p.To = toUser.Int64
	p.Method = ledger.PaymentMethod(method.String)
	return p, nil
}
