package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"payments_admin/internal/config/connections/postgres"
	"payments_admin/internal/models"
	"payments_admin/internal/ports"
)

const DefaultPostgresTable = "payments"

// PostgresService serves payments from a relational payments table.
type PostgresService struct {
	pg     *postgres.Postgres
	table  string
	logger *slog.Logger
}

func NewPostgresService(pg *postgres.Postgres, table string, logger *slog.Logger) *PostgresService {
	if table == "" {
		table = DefaultPostgresTable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresService{pg: pg, table: pgx.Identifier{table}.Sanitize(), logger: logger}
}

const paymentColumns = `
	id::text,
	COALESCE(payee_first_name, ''),
	COALESCE(payee_last_name, ''),
	COALESCE(due_amount, 0)::text,
	COALESCE(payee_payment_status, ''),
	COALESCE(total_due::text, ''),
	COALESCE(evidence, ''),
	COALESCE(currency, ''),
	COALESCE(discount_percent, 0)::text,
	COALESCE(tax_percent, 0)::text
`

func (s *PostgresService) FetchAll(ctx context.Context) ([]models.Payment, error) {
	if s.pg == nil || s.pg.Pool == nil {
		return nil, errors.New("postgres not available")
	}

	rows, err := s.pg.Pool.Query(ctx, `SELECT `+paymentColumns+` FROM `+s.table+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			s.logger.Warn("[RECORDS][PG][WARN] skip unreadable payment", "error", err)
			continue
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}

func (s *PostgresService) DeleteByID(ctx context.Context, id string) error {
	if s.pg == nil || s.pg.Pool == nil {
		return errors.New("postgres not available")
	}

	tag, err := s.pg.Pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete payment %s: %w", id, ports.ErrNotFound)
	}
	return nil
}

func (s *PostgresService) UpdateByID(ctx context.Context, id string, patch models.PaymentPatch) (models.Payment, error) {
	if s.pg == nil || s.pg.Pool == nil {
		return models.Payment{}, errors.New("postgres not available")
	}

	query := `
		UPDATE ` + s.table + ` SET
			due_amount           = COALESCE($2::numeric, due_amount),
			payee_payment_status = COALESCE($3::text, payee_payment_status),
			total_due            = COALESCE($4::numeric, total_due),
			evidence             = COALESCE($5::text, evidence),
			discount_percent     = COALESCE($6::numeric, discount_percent),
			tax_percent          = COALESCE($7::numeric, tax_percent)
		WHERE id::text = $1
		RETURNING ` + paymentColumns

	row := s.pg.Pool.QueryRow(ctx, query,
		id,
		decimalText(patch.DueAmount),
		patch.PaymentStatus,
		decimalText(patch.TotalDue),
		patch.Evidence,
		decimalText(patch.DiscountPercent),
		decimalText(patch.TaxPercent),
	)
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Payment{}, fmt.Errorf("update payment %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return models.Payment{}, fmt.Errorf("update payment %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresService) Ping(ctx context.Context) error {
	if s.pg == nil || s.pg.Pool == nil {
		return errors.New("postgres not available")
	}
	return s.pg.Pool.Ping(ctx)
}

func scanPayment(row pgx.Row) (models.Payment, error) {
	var (
		p                         models.Payment
		due, total, discount, tax string
	)
	if err := row.Scan(
		&p.ID,
		&p.PayeeFirstName,
		&p.PayeeLastName,
		&due,
		&p.PaymentStatus,
		&total,
		&p.Evidence,
		&p.Currency,
		&discount,
		&tax,
	); err != nil {
		return models.Payment{}, err
	}
	return fillAmounts(p, due, total, discount, tax)
}

// fillAmounts parses the numeric columns read as text. An empty total is derived
// from the due amount, discount and tax.
func fillAmounts(p models.Payment, due, total, discount, tax string) (models.Payment, error) {
	var err error
	if p.DueAmount, err = decimal.NewFromString(strings.TrimSpace(due)); err != nil {
		return p, fmt.Errorf("due_amount %q: %w", due, err)
	}
	if p.DiscountPercent, err = decimal.NewFromString(strings.TrimSpace(discount)); err != nil {
		return p, fmt.Errorf("discount_percent %q: %w", discount, err)
	}
	if p.TaxPercent, err = decimal.NewFromString(strings.TrimSpace(tax)); err != nil {
		return p, fmt.Errorf("tax_percent %q: %w", tax, err)
	}
	if strings.TrimSpace(total) == "" {
		p.TotalDue = models.CalculateTotalDue(p)
		return p, nil
	}
	if p.TotalDue, err = decimal.NewFromString(strings.TrimSpace(total)); err != nil {
		return p, fmt.Errorf("total_due %q: %w", total, err)
	}
	return p, nil
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
