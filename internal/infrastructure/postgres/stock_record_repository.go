package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL (pool o tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

const stockRecordColumns = `
	id, product_id, variant_id, warehouse_id, shop_id,
	quantity, reserved_quantity, available_quantity,
	minimum_stock, maximum_stock, reorder_point, reorder_quantity, low_stock_alert,
	unit_cost, allow_negative, delivery_status, status,
	movement_count, last_movement_at, created_at, updated_at`

// scanRecord reconstruye la entidad desde una fila; la reconstrucción del dueño falla
// rápido ante filas con ambos dueños (ErrDualOwnershipConflict) o ninguno.
func scanRecord(row pgx.Row) (*entity.StockRecord, error) {
	var r entity.StockRecord
	var warehouseID, shopID *string
	err := row.Scan(
		&r.ID, &r.ProductID, &r.VariantID, &warehouseID, &shopID,
		&r.Quantity, &r.ReservedQuantity, &r.AvailableQuantity,
		&r.MinimumStock, &r.MaximumStock, &r.ReorderPoint, &r.ReorderQuantity, &r.LowStockAlert,
		&r.UnitCost, &r.AllowNegative, &r.DeliveryStatus, &r.Status,
		&r.MovementCount, &r.LastMovementAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	owner, err := entity.OwnerFromColumns(warehouseID, shopID)
	if err != nil {
		return nil, err
	}
	r.Owner = owner
	return &r, nil
}

func (r *StockRecordRepo) getByKey(ctx context.Context, productID string, variantID *string, owner entity.Owner, forUpdate bool) (*entity.StockRecord, error) {
	warehouseID, shopID := owner.Columns()
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records
		WHERE product_id = $1
		  AND variant_id IS NOT DISTINCT FROM $2
		  AND warehouse_id IS NOT DISTINCT FROM $3
		  AND shop_id IS NOT DISTINCT FROM $4`
	if forUpdate {
		query += `
		FOR UPDATE`
	}
	rec, err := scanRecord(r.q.QueryRow(ctx, query, productID, variantID, warehouseID, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if errors.Is(err, domain.ErrDualOwnershipConflict) || errors.Is(err, domain.ErrAmbiguousOwnership) {
			return nil, err
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return rec, nil
}

// Get obtiene el registro por clave (producto, variante, dueño); nil si no existe.
func (r *StockRecordRepo) Get(ctx context.Context, productID string, variantID *string, owner entity.Owner) (*entity.StockRecord, error) {
	return r.getByKey(ctx, productID, variantID, owner, false)
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT FOR UPDATE).
func (r *StockRecordRepo) GetForUpdate(ctx context.Context, productID string, variantID *string, owner entity.Owner) (*entity.StockRecord, error) {
	return r.getByKey(ctx, productID, variantID, owner, true)
}

func (r *StockRecordRepo) getByID(ctx context.Context, id string, forUpdate bool) (*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE id = $1`
	if forUpdate {
		query += `
		FOR UPDATE`
	}
	rec, err := scanRecord(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if errors.Is(err, domain.ErrDualOwnershipConflict) || errors.Is(err, domain.ErrAmbiguousOwnership) {
			return nil, err
		}
		return nil, fmt.Errorf("get stock record by id: %w", err)
	}
	return rec, nil
}

// GetByID obtiene el registro por ID; nil si no existe.
func (r *StockRecordRepo) GetByID(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate obtiene el registro por ID bloqueando la fila.
func (r *StockRecordRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.getByID(ctx, id, true)
}

// Create inserta un registro nuevo. ErrDuplicate si la clave compuesta ya existe.
// El conflicto no aborta la transacción en curso (ON CONFLICT DO NOTHING), así el
// caller puede re-bloquear la fila ganadora dentro de la misma tx tras una carrera
// de creación.
func (r *StockRecordRepo) Create(ctx context.Context, record *entity.StockRecord) error {
	if err := record.Owner.Validate(); err != nil {
		return err
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	warehouseID, shopID := record.Owner.Columns()
	query := `
		INSERT INTO stock_records (
			id, product_id, variant_id, warehouse_id, shop_id,
			quantity, reserved_quantity, available_quantity,
			minimum_stock, maximum_stock, reorder_point, reorder_quantity, low_stock_alert,
			unit_cost, allow_negative, delivery_status, status,
			movement_count, last_movement_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		ON CONFLICT DO NOTHING`
	tag, err := r.q.Exec(ctx, query,
		record.ID, record.ProductID, record.VariantID, warehouseID, shopID,
		record.Quantity, record.ReservedQuantity, record.AvailableQuantity,
		record.MinimumStock, record.MaximumStock, record.ReorderPoint, record.ReorderQuantity, record.LowStockAlert,
		record.UnitCost, record.AllowNegative, record.DeliveryStatus, record.Status,
		record.MovementCount, record.LastMovementAt, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicate
	}
	return nil
}

// Update persiste los saldos, el costo, los flags y los contadores del registro.
// El disponible viaja ya recalculado por la entidad en la misma escritura.
func (r *StockRecordRepo) Update(ctx context.Context, record *entity.StockRecord) error {
	query := `
		UPDATE stock_records SET
			quantity = $2, reserved_quantity = $3, available_quantity = $4,
			minimum_stock = $5, maximum_stock = $6, reorder_point = $7, reorder_quantity = $8,
			low_stock_alert = $9, unit_cost = $10, allow_negative = $11,
			delivery_status = $12, status = $13,
			movement_count = $14, last_movement_at = $15, updated_at = $16
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		record.ID,
		record.Quantity, record.ReservedQuantity, record.AvailableQuantity,
		record.MinimumStock, record.MaximumStock, record.ReorderPoint, record.ReorderQuantity,
		record.LowStockAlert, record.UnitCost, record.AllowNegative,
		record.DeliveryStatus, record.Status,
		record.MovementCount, record.LastMovementAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update stock record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByProduct lista todos los registros de un producto (todas las bodegas y tiendas).
func (r *StockRecordRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE product_id = $1
		ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock records: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// ListBelowReorderPoint devuelve registros activos bajo su punto de reorden,
// ordenados por mayor déficit primero. ownerID vacío = todos los dueños.
func (r *StockRecordRepo) ListBelowReorderPoint(ctx context.Context, ownerID string) ([]repository.ReplenishmentItem, error) {
	query := `
		SELECT id, product_id, variant_id, COALESCE(warehouse_id, shop_id),
		       available_quantity, reorder_point, reorder_quantity, unit_cost
		FROM stock_records
		WHERE status = 'active'
		  AND reorder_point > 0
		  AND available_quantity < reorder_point
		  AND ($1 = '' OR warehouse_id = $1 OR shop_id = $1)
		ORDER BY (reorder_point - available_quantity) DESC`
	rows, err := r.q.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list below reorder point: %w", err)
	}
	defer rows.Close()
	var list []repository.ReplenishmentItem
	for rows.Next() {
		var item repository.ReplenishmentItem
		if err := rows.Scan(&item.RecordID, &item.ProductID, &item.VariantID, &item.OwnerID,
			&item.Available, &item.ReorderPoint, &item.ReorderQuantity, &item.UnitCost); err != nil {
			return nil, fmt.Errorf("scan replenishment item: %w", err)
		}
		list = append(list, item)
	}
	return list, rows.Err()
}
