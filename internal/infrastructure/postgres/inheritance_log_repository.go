package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.InheritanceLogRepository = (*InheritanceLogRepo)(nil)

// InheritanceLogRepo implementación de la bitácora de resolución (append-only).
type InheritanceLogRepo struct {
	q Querier
}

// NewInheritanceLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInheritanceLogRepository(q Querier) *InheritanceLogRepo {
	return &InheritanceLogRepo{q: q}
}

// Create persiste una entrada de bitácora. Metadata viaja como JSONB.
func (r *InheritanceLogRepo) Create(ctx context.Context, log *entity.StockInheritanceLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	createdBy := (*string)(nil)
	if log.CreatedBy != "" {
		createdBy = &log.CreatedBy
	}
	query := `
		INSERT INTO stock_inheritance_log (
			id, product_id, variant_id, shop_id, action, source_warehouse_id,
			quantity_before, quantity_after, metadata, created_at, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.q.Exec(ctx, query,
		log.ID, log.ProductID, log.VariantID, log.ShopID, log.Action, log.SourceWarehouseID,
		log.QuantityBefore, log.QuantityAfter, log.Metadata, log.CreatedAt, createdBy,
	)
	if err != nil {
		return fmt.Errorf("create inheritance log: %w", err)
	}
	return nil
}

// HasInheritEntry indica si ya existe el primer fallback 'inherit' para el par
// (producto, variante, tienda).
func (r *InheritanceLogRepo) HasInheritEntry(ctx context.Context, productID string, variantID *string, shopID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM stock_inheritance_log
			WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2
			  AND shop_id = $3 AND action = 'inherit'
		)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, productID, variantID, shopID).Scan(&exists); err != nil {
		return false, fmt.Errorf("has inherit entry: %w", err)
	}
	return exists, nil
}

// ListByShopProduct lista la bitácora de un par tienda+producto, reciente primero.
func (r *InheritanceLogRepo) ListByShopProduct(ctx context.Context, shopID, productID string, limit, offset int) ([]*entity.StockInheritanceLog, error) {
	query := `
		SELECT id, product_id, variant_id, shop_id, action, source_warehouse_id,
		       quantity_before, quantity_after, metadata, created_at, created_by
		FROM stock_inheritance_log
		WHERE shop_id = $1 AND product_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	// limit <= 0 = sin límite (LIMIT NULL).
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := r.q.Query(ctx, query, shopID, productID, lim, offset)
	if err != nil {
		return nil, fmt.Errorf("list inheritance log: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockInheritanceLog
	for rows.Next() {
		var l entity.StockInheritanceLog
		var createdBy *string
		if err := rows.Scan(&l.ID, &l.ProductID, &l.VariantID, &l.ShopID, &l.Action, &l.SourceWarehouseID,
			&l.QuantityBefore, &l.QuantityAfter, &l.Metadata, &l.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan inheritance log: %w", err)
		}
		if createdBy != nil {
			l.CreatedBy = *createdBy
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
