package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/draftea/order-system/payment-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// PostgresPaymentRepository implements PaymentRepository using
// PostgreSQL. The payments table carries a unique constraint on
// order_id: the insert is ON CONFLICT DO NOTHING, so a redelivered
// order.created event surfaces as ErrDuplicatePayment instead of a
// second row.
type PostgresPaymentRepository struct {
	db *sqlx.DB
}

// NewPostgresPaymentRepository creates a new PostgresPaymentRepository
func NewPostgresPaymentRepository(db *sqlx.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

// postgresPayment represents a payment row
type postgresPayment struct {
	ID                 string    `db:"id"`
	OrderID            string    `db:"order_id"`
	UserID             string    `db:"user_id"`
	Amount             int64     `db:"amount"`
	Currency           string    `db:"currency"`
	Status             string    `db:"status"`
	PaymentReferenceID *string   `db:"payment_reference_id"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
	Version            int       `db:"version"`
}

// Save persists the aggregate; recorded events determine whether this is
// the initial insert or a guarded update
func (r *PostgresPaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	for _, event := range payment.Events() {
		if event.Topic != events.PaymentStatusEvent {
			return r.insertPayment(ctx, payment)
		}
	}
	return r.updatePayment(ctx, payment)
}

func (r *PostgresPaymentRepository) insertPayment(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, order_id, user_id, amount, currency, status,
			payment_reference_id, created_at, updated_at, version
		) VALUES (
			:id, :order_id, :user_id, :amount, :currency, :status,
			:payment_reference_id, :created_at, :updated_at, :version
		)
		ON CONFLICT (order_id) DO NOTHING`

	res, err := r.db.NamedExecContext(ctx, query, r.toPostgres(payment))
	if err != nil {
		return errors.Wrap(err, "failed to insert payment")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrDuplicatePayment, "order %s", payment.OrderID)
	}

	return nil
}

// updatePayment settles the row. The WHERE clause re-checks both the
// version and that the row is still PENDING, so two racing settlements
// cannot both win.
func (r *PostgresPaymentRepository) updatePayment(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = :status,
		    payment_reference_id = :payment_reference_id,
		    updated_at = :updated_at,
		    version = :version
		WHERE id = :id AND version = :old_version AND status = 'PENDING'`

	var referenceID *string
	if payment.PaymentReferenceID != "" {
		referenceID = &payment.PaymentReferenceID
	}

	res, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                   payment.ID.String(),
		"status":               string(payment.Status),
		"payment_reference_id": referenceID,
		"updated_at":           payment.Timestamps.UpdatedAt,
		"version":              payment.Version.Value,
		"old_version":          payment.Version.Value - 1,
	})
	if err != nil {
		return errors.Wrap(err, "failed to update payment")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrConcurrentUpdate, "payment %s version %d", payment.ID, payment.Version.Value-1)
	}

	return nil
}

// FindByID finds a payment by ID
func (r *PostgresPaymentRepository) FindByID(ctx context.Context, id models.ID) (*domain.Payment, error) {
	return r.findOne(ctx, `
		SELECT id, order_id, user_id, amount, currency, status,
		       payment_reference_id, created_at, updated_at, version
		FROM payments
		WHERE id = $1`, id.String())
}

// FindByOrderID finds the payment opened for an order
func (r *PostgresPaymentRepository) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.Payment, error) {
	return r.findOne(ctx, `
		SELECT id, order_id, user_id, amount, currency, status,
		       payment_reference_id, created_at, updated_at, version
		FROM payments
		WHERE order_id = $1`, orderID.String())
}

// FindByReferenceID finds a payment by its settlement reference
func (r *PostgresPaymentRepository) FindByReferenceID(ctx context.Context, referenceID string) (*domain.Payment, error) {
	return r.findOne(ctx, `
		SELECT id, order_id, user_id, amount, currency, status,
		       payment_reference_id, created_at, updated_at, version
		FROM payments
		WHERE payment_reference_id = $1`, referenceID)
}

// FindAll lists all payments, newest first
func (r *PostgresPaymentRepository) FindAll(ctx context.Context) ([]*domain.Payment, error) {
	query := `
		SELECT id, order_id, user_id, amount, currency, status,
		       payment_reference_id, created_at, updated_at, version
		FROM payments
		ORDER BY created_at DESC`

	var pgPayments []postgresPayment
	if err := r.db.SelectContext(ctx, &pgPayments, query); err != nil {
		return nil, errors.Wrap(err, "failed to list payments")
	}

	payments := make([]*domain.Payment, len(pgPayments))
	for i := range pgPayments {
		payment, err := r.toDomain(&pgPayments[i])
		if err != nil {
			return nil, err
		}
		payments[i] = payment
	}
	return payments, nil
}

func (r *PostgresPaymentRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.Payment, error) {
	var pgPayment postgresPayment
	err := r.db.GetContext(ctx, &pgPayment, query, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Payment not found
		}
		return nil, errors.Wrap(err, "failed to find payment")
	}
	return r.toDomain(&pgPayment)
}

func (r *PostgresPaymentRepository) toPostgres(payment *domain.Payment) *postgresPayment {
	var referenceID *string
	if payment.PaymentReferenceID != "" {
		referenceID = &payment.PaymentReferenceID
	}

	return &postgresPayment{
		ID:                 payment.ID.String(),
		OrderID:            payment.OrderID.String(),
		UserID:             payment.UserID.String(),
		Amount:             payment.Amount.Amount,
		Currency:           payment.Amount.Currency,
		Status:             string(payment.Status),
		PaymentReferenceID: referenceID,
		CreatedAt:          payment.Timestamps.CreatedAt,
		UpdatedAt:          payment.Timestamps.UpdatedAt,
		Version:            payment.Version.Value,
	}
}

func (r *PostgresPaymentRepository) toDomain(pgPayment *postgresPayment) (*domain.Payment, error) {
	id, err := models.NewID(pgPayment.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid payment ID")
	}

	orderID, err := models.NewID(pgPayment.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	userID, err := models.NewID(pgPayment.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user ID")
	}

	referenceID := ""
	if pgPayment.PaymentReferenceID != nil {
		referenceID = *pgPayment.PaymentReferenceID
	}

	return &domain.Payment{
		ID:                 id,
		OrderID:            orderID,
		UserID:             userID,
		Amount:             models.NewMoney(pgPayment.Amount, pgPayment.Currency),
		Status:             domain.PaymentStatus(pgPayment.Status),
		PaymentReferenceID: referenceID,
		Timestamps: models.Timestamps{
			CreatedAt: pgPayment.CreatedAt,
			UpdatedAt: pgPayment.UpdatedAt,
		},
		Version: models.Version{Value: pgPayment.Version},
	}, nil
}
