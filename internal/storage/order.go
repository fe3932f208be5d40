package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/bookstore/internal/domain/models"
)

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateCustomerTx сохраняет снимок контактных данных и возвращает его id.
	CreateCustomerTx(ctx context.Context, tx *sql.Tx, c *models.CustomerInfo) (int64, error)
	// CreateOrderTx вставляет заголовок заказа, заполняет ID и CreatedAt.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error
	// CreateOrderItemTx вставляет одну позицию заказа.
	CreateOrderItemTx(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]*models.OrderItem, error)
	// GetItemsByOrderIDs - позиции сразу нескольких заказов, сгруппированные по order_id.
	GetItemsByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]*models.OrderItem, error)
}

// orderRepository - конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateCustomerTx(ctx context.Context, tx *sql.Tx, c *models.CustomerInfo) (int64, error) {
	query := `INSERT INTO order_customers (user_id, first_name, last_name, email, phone, address, apartment,
	              state, country, birth_date, gender)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, query, c.UserID, c.FirstName, c.LastName, c.Email, c.Phone, c.Address,
		c.Apartment, c.State, c.Country, c.BirthDate, c.Gender).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create customer info: %w", mapError(err))
	}
	c.ID = id
	return id, nil
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	query := `INSERT INTO orders (order_number, customer_id, user_id, total_price, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, NOW())
	          RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, query, order.OrderNumber, order.CustomerID, order.UserID, order.TotalPrice,
		order.Status).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", mapError(err))
	}
	return nil
}

func (r *orderRepository) CreateOrderItemTx(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error {
	query := `INSERT INTO order_items (order_id, product_id, title, quantity, price)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := tx.QueryRowContext(ctx, query, item.OrderID, item.ProductID, item.Title, item.Quantity, item.Price).
		Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", mapError(err))
	}
	return nil
}

const orderColumns = `o.id, o.order_number, o.customer_id, o.user_id, o.total_price, o.status, o.created_at,
	c.first_name, c.last_name, c.email, c.phone, c.address, c.apartment, c.state, c.country`

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{Customer: &models.CustomerInfo{}}
	c := o.Customer
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.UserID, &o.TotalPrice, &o.Status, &o.CreatedAt,
		&c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address, &c.Apartment, &c.State, &c.Country)
	if err != nil {
		return nil, err
	}
	c.ID = o.CustomerID
	c.UserID = o.UserID
	return o, nil
}

// GetOrdersByUserID возвращает заказы пользователя, новые первыми.
func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN order_customers c ON c.id = o.customer_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN order_customers c ON c.id = o.customer_id
		WHERE o.id = $1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

const orderItemQuery = `
	SELECT oi.id, oi.order_id, oi.product_id, oi.title, oi.quantity, oi.price, COALESCE(b.image_url, '')
	FROM order_items oi
	LEFT JOIN books b ON b.id = oi.product_id`

func scanOrderItems(rows *sql.Rows) ([]*models.OrderItem, error) {
	defer rows.Close()

	items := []*models.OrderItem{}
	for rows.Next() {
		it := &models.OrderItem{}
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Title, &it.Quantity, &it.Price, &it.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) GetOrderItems(ctx context.Context, orderID int64) ([]*models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, orderItemQuery+" WHERE oi.order_id = $1 ORDER BY oi.id", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	return scanOrderItems(rows)
}

func (r *orderRepository) GetItemsByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]*models.OrderItem, error) {
	grouped := make(map[int64][]*models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return grouped, nil
	}

	rows, err := r.db.QueryContext(ctx,
		orderItemQuery+" WHERE oi.order_id = ANY($1) ORDER BY oi.order_id, oi.id", pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	items, err := scanOrderItems(rows)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		grouped[it.OrderID] = append(grouped[it.OrderID], it)
	}
	return grouped, nil
}
