package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
// Status-mutating writes are conditional updates guarded by the entity
// version, so two concurrent transitions on the same order race safely:
// one wins, the loser sees ErrConcurrentUpdate.
type PostgresOrderRepository struct {
	db *sqlx.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// postgresOrder represents an order row
type postgresOrder struct {
	ID                 string    `db:"id"`
	UserID             string    `db:"user_id"`
	TotalAmount        int64     `db:"total_amount"`
	Currency           string    `db:"currency"`
	Status             string    `db:"status"`
	PaymentStatus      string    `db:"payment_status"`
	PaymentReferenceID *string   `db:"payment_reference_id"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
	Version            int       `db:"version"`
}

// postgresOrderItem represents an order line row
type postgresOrderItem struct {
	OrderID     string `db:"order_id"`
	ProductID   string `db:"product_id"`
	ProductName string `db:"product_name"`
	Price       int64  `db:"price"`
	Quantity    int    `db:"quantity"`
	Subtotal    int64  `db:"subtotal"`
	Position    int    `db:"position"`
}

// Save persists the aggregate; recorded events determine whether this is
// the initial insert or a guarded update
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	for _, event := range order.Events() {
		if event.Topic == events.OrderCreatedEvent {
			return r.insertOrder(ctx, order)
		}
	}
	return r.updateOrder(ctx, order)
}

// insertOrder inserts the order and its items in one transaction
func (r *PostgresOrderRepository) insertOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (
			id, user_id, total_amount, currency, status, payment_status,
			payment_reference_id, created_at, updated_at, version
		) VALUES (
			:id, :user_id, :total_amount, :currency, :status, :payment_status,
			:payment_reference_id, :created_at, :updated_at, :version
		)`

	if _, err := tx.NamedExecContext(ctx, orderQuery, r.toPostgres(order)); err != nil {
		return errors.Wrap(err, "failed to insert order")
	}

	itemQuery := `
		INSERT INTO order_items (
			order_id, product_id, product_name, price, quantity, subtotal, position
		) VALUES (
			:order_id, :product_id, :product_name, :price, :quantity, :subtotal, :position
		)`

	for i, item := range order.Items {
		pgItem := &postgresOrderItem{
			OrderID:     order.ID.String(),
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			Price:       item.Price.Amount,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal.Amount,
			Position:    i,
		}
		if _, err := tx.NamedExecContext(ctx, itemQuery, pgItem); err != nil {
			return errors.Wrap(err, "failed to insert order item")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit order insert")
	}

	return nil
}

// updateOrder applies a version-guarded conditional update. Items are
// immutable after creation and never rewritten.
func (r *PostgresOrderRepository) updateOrder(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = :status,
		    payment_status = :payment_status,
		    payment_reference_id = :payment_reference_id,
		    updated_at = :updated_at,
		    version = :version
		WHERE id = :id AND version = :old_version`

	var referenceID *string
	if order.PaymentReferenceID != "" {
		referenceID = &order.PaymentReferenceID
	}

	res, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                   order.ID.String(),
		"status":               string(order.Status),
		"payment_status":       string(order.PaymentStatus),
		"payment_reference_id": referenceID,
		"updated_at":           order.Timestamps.UpdatedAt,
		"version":              order.Version.Value,
		"old_version":          order.Version.Value - 1,
	})
	if err != nil {
		return errors.Wrap(err, "failed to update order")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrConcurrentUpdate, "order %s version %d", order.ID, order.Version.Value-1)
	}

	return nil
}

// FindByID finds an order and its items by ID
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	query := `
		SELECT id, user_id, total_amount, currency, status, payment_status,
		       payment_reference_id, created_at, updated_at, version
		FROM orders
		WHERE id = $1`

	var pgOrder postgresOrder
	err := r.db.GetContext(ctx, &pgOrder, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Order not found
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	items, err := r.findItems(ctx, id)
	if err != nil {
		return nil, err
	}

	return r.toDomain(&pgOrder, items)
}

// FindAll lists all orders, newest first
func (r *PostgresOrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	query := `
		SELECT id, user_id, total_amount, currency, status, payment_status,
		       payment_reference_id, created_at, updated_at, version
		FROM orders
		ORDER BY created_at DESC`

	var pgOrders []postgresOrder
	if err := r.db.SelectContext(ctx, &pgOrders, query); err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	return r.hydrate(ctx, pgOrders)
}

// FindByUserID lists a user's orders, newest first
func (r *PostgresOrderRepository) FindByUserID(ctx context.Context, userID models.ID) ([]*domain.Order, error) {
	query := `
		SELECT id, user_id, total_amount, currency, status, payment_status,
		       payment_reference_id, created_at, updated_at, version
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var pgOrders []postgresOrder
	if err := r.db.SelectContext(ctx, &pgOrders, query, userID.String()); err != nil {
		return nil, errors.Wrap(err, "failed to find orders by user ID")
	}

	return r.hydrate(ctx, pgOrders)
}

func (r *PostgresOrderRepository) hydrate(ctx context.Context, pgOrders []postgresOrder) ([]*domain.Order, error) {
	orders := make([]*domain.Order, len(pgOrders))
	for i := range pgOrders {
		items, err := r.findItems(ctx, models.ID(pgOrders[i].ID))
		if err != nil {
			return nil, err
		}
		order, err := r.toDomain(&pgOrders[i], items)
		if err != nil {
			return nil, err
		}
		orders[i] = order
	}
	return orders, nil
}

func (r *PostgresOrderRepository) findItems(ctx context.Context, orderID models.ID) ([]postgresOrderItem, error) {
	query := `
		SELECT order_id, product_id, product_name, price, quantity, subtotal, position
		FROM order_items
		WHERE order_id = $1
		ORDER BY position`

	var items []postgresOrderItem
	if err := r.db.SelectContext(ctx, &items, query, orderID.String()); err != nil {
		return nil, errors.Wrap(err, "failed to find order items")
	}
	return items, nil
}

func (r *PostgresOrderRepository) toPostgres(order *domain.Order) *postgresOrder {
	var referenceID *string
	if order.PaymentReferenceID != "" {
		referenceID = &order.PaymentReferenceID
	}

	return &postgresOrder{
		ID:                 order.ID.String(),
		UserID:             order.UserID.String(),
		TotalAmount:        order.TotalAmount.Amount,
		Currency:           order.TotalAmount.Currency,
		Status:             string(order.Status),
		PaymentStatus:      string(order.PaymentStatus),
		PaymentReferenceID: referenceID,
		CreatedAt:          order.Timestamps.CreatedAt,
		UpdatedAt:          order.Timestamps.UpdatedAt,
		Version:            order.Version.Value,
	}
}

func (r *PostgresOrderRepository) toDomain(pgOrder *postgresOrder, pgItems []postgresOrderItem) (*domain.Order, error) {
	id, err := models.NewID(pgOrder.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	userID, err := models.NewID(pgOrder.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user ID")
	}

	items := make([]domain.OrderItem, len(pgItems))
	for i, pgItem := range pgItems {
		productID, err := models.NewID(pgItem.ProductID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid product ID")
		}
		items[i] = domain.OrderItem{
			ProductID:   productID,
			ProductName: pgItem.ProductName,
			Price:       models.NewMoney(pgItem.Price, pgOrder.Currency),
			Quantity:    pgItem.Quantity,
			Subtotal:    models.NewMoney(pgItem.Subtotal, pgOrder.Currency),
		}
	}

	referenceID := ""
	if pgOrder.PaymentReferenceID != nil {
		referenceID = *pgOrder.PaymentReferenceID
	}

	return &domain.Order{
		ID:                 id,
		UserID:             userID,
		Items:              items,
		TotalAmount:        models.NewMoney(pgOrder.TotalAmount, pgOrder.Currency),
		Status:             domain.OrderStatus(pgOrder.Status),
		PaymentStatus:      domain.PaymentStatus(pgOrder.PaymentStatus),
		PaymentReferenceID: referenceID,
		Timestamps: models.Timestamps{
			CreatedAt: pgOrder.CreatedAt,
			UpdatedAt: pgOrder.UpdatedAt,
		},
		Version: models.Version{Value: pgOrder.Version},
	}, nil
}
