package render

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SQLDataSource reads marketplace analytics straight from the application
// database. It fails loudly when the tables are unreachable; substituting
// placeholder numbers would corrupt the audit trail's meaning.
type SQLDataSource struct {
	db *gorm.DB
}

func NewSQLDataSource(db *gorm.DB) *SQLDataSource {
	return &SQLDataSource{db: db}
}

func (s *SQLDataSource) Collect(ctx context.Context, windowStart, windowEnd time.Time) (*ReportData, error) {
	data := &ReportData{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		GeneratedAt: time.Now().UTC(),
	}

	row := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(*), COALESCE(SUM(total), 0) FROM orders
		 WHERE created_at >= ? AND created_at < ?`,
		windowStart, windowEnd).Row()
	if err := row.Scan(&data.Orders, &data.Revenue); err != nil {
		return nil, fmt.Errorf("order summary query failed: %w", err)
	}

	row = s.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM customers WHERE created_at >= ? AND created_at < ?`,
		windowStart, windowEnd).Row()
	if err := row.Scan(&data.NewCustomers); err != nil {
		return nil, fmt.Errorf("customer summary query failed: %w", err)
	}

	rows, err := s.db.WithContext(ctx).Raw(
		`SELECT p.name, SUM(oi.quantity), SUM(oi.quantity * oi.unit_price)
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 JOIN products p ON p.id = oi.product_id
		 WHERE o.created_at >= ? AND o.created_at < ?
		 GROUP BY p.name
		 ORDER BY SUM(oi.quantity * oi.unit_price) DESC
		 LIMIT 10`,
		windowStart, windowEnd).Rows()
	if err != nil {
		return nil, fmt.Errorf("top products query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p ProductSummary
		if err := rows.Scan(&p.Name, &p.Units, &p.Revenue); err != nil {
			return nil, fmt.Errorf("top products scan failed: %w", err)
		}
		data.TopProducts = append(data.TopProducts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top products query failed: %w", err)
	}

	return data, nil
}
