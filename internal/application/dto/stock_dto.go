package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// MovementRequest body para POST /api/stock/movements.
// warehouse_id y shop_id son excluyentes (dueño del registro); para type=transfer se
// usan from_warehouse_id y to_warehouse_id en su lugar.
type MovementRequest struct {
	ProductID       string           `json:"product_id"`
	VariantID       *string          `json:"variant_id,omitempty"`
	WarehouseID     string           `json:"warehouse_id,omitempty"`
	ShopID          string           `json:"shop_id,omitempty"`
	FromWarehouseID string           `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   string           `json:"to_warehouse_id,omitempty"`
	Type            string           `json:"type"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceType   string           `json:"reference_type,omitempty"`
	ReferenceID     string           `json:"reference_id,omitempty"`
	CorrelationKey  string           `json:"correlation_key,omitempty"`
	IsCorrection    bool             `json:"is_correction,omitempty"`
	MovementDate    *time.Time       `json:"movement_date,omitempty"`
}

// MovementResponse una entrada del libro de movimientos.
type MovementResponse struct {
	ID             string          `json:"id"`
	TransactionID  string          `json:"transaction_id"`
	RecordID       string          `json:"record_id"`
	Type           string          `json:"type"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityChange decimal.Decimal `json:"quantity_change"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	ReservedBefore decimal.Decimal `json:"reserved_before"`
	ReservedAfter  decimal.Decimal `json:"reserved_after"`
	FromWarehouse  *string         `json:"from_warehouse_id,omitempty"`
	ToWarehouse    *string         `json:"to_warehouse_id,omitempty"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	ReferenceType  string          `json:"reference_type,omitempty"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	IsCorrection   bool            `json:"is_correction,omitempty"`
	MovementDate   time.Time       `json:"movement_date"`
	CreatedAt      time.Time       `json:"created_at"`
}

// MovementFromEntity mapea la entidad al DTO de respuesta.
func MovementFromEntity(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		TransactionID:  m.TransactionID,
		RecordID:       m.RecordID,
		Type:           string(m.Type),
		QuantityBefore: m.QuantityBefore,
		QuantityChange: m.QuantityChange,
		QuantityAfter:  m.QuantityAfter,
		ReservedBefore: m.ReservedBefore,
		ReservedAfter:  m.ReservedAfter,
		FromWarehouse:  m.FromWarehouseID,
		ToWarehouse:    m.ToWarehouseID,
		UnitCost:       m.UnitCost,
		TotalCost:      m.TotalCost,
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		IsCorrection:   m.IsCorrection,
		MovementDate:   m.MovementDate,
		CreatedAt:      m.CreatedAt,
	}
}

// RecordResponse estado de un registro de stock.
type RecordResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	VariantID         *string         `json:"variant_id,omitempty"`
	OwnerKind         string          `json:"owner_kind"`
	OwnerID           string          `json:"owner_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	MinimumStock      decimal.Decimal `json:"minimum_stock"`
	MaximumStock      decimal.Decimal `json:"maximum_stock"`
	ReorderPoint      decimal.Decimal `json:"reorder_point"`
	ReorderQuantity   decimal.Decimal `json:"reorder_quantity"`
	LowStockAlert     bool            `json:"low_stock_alert"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	AllowNegative     bool            `json:"allow_negative"`
	DeliveryStatus    string          `json:"delivery_status"`
	Status            string          `json:"status"`
	MovementCount     int64           `json:"movement_count"`
	LastMovementAt    *time.Time      `json:"last_movement_at,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// RecordFromEntity mapea la entidad al DTO de respuesta.
func RecordFromEntity(r *entity.StockRecord) RecordResponse {
	return RecordResponse{
		ID:                r.ID,
		ProductID:         r.ProductID,
		VariantID:         r.VariantID,
		OwnerKind:         string(r.Owner.Kind),
		OwnerID:           r.Owner.ID,
		Quantity:          r.Quantity,
		ReservedQuantity:  r.ReservedQuantity,
		AvailableQuantity: r.AvailableQuantity,
		MinimumStock:      r.MinimumStock,
		MaximumStock:      r.MaximumStock,
		ReorderPoint:      r.ReorderPoint,
		ReorderQuantity:   r.ReorderQuantity,
		LowStockAlert:     r.LowStockAlert,
		UnitCost:          r.UnitCost,
		AllowNegative:     r.AllowNegative,
		DeliveryStatus:    string(r.DeliveryStatus),
		Status:            string(r.Status),
		MovementCount:     r.MovementCount,
		LastMovementAt:    r.LastMovementAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// DeliveryStatusRequest body para PATCH del flujo de entrega.
type DeliveryStatusRequest struct {
	Status string `json:"status"`
}

// ReserveRequest body para POST /api/stock/reservations.
type ReserveRequest struct {
	ProductID     string          `json:"product_id"`
	VariantID     *string         `json:"variant_id,omitempty"`
	WarehouseID   string          `json:"warehouse_id,omitempty"`
	ShopID        string          `json:"shop_id,omitempty"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	Priority      int             `json:"priority,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	AutoRelease   bool            `json:"auto_release,omitempty"`
	IsFirm        bool            `json:"is_firm,omitempty"`
	Confirm       bool            `json:"confirm,omitempty"`
	AllowPartial  bool            `json:"allow_partial,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
}

// ReservationResponse estado de una reserva.
type ReservationResponse struct {
	ID                string          `json:"id"`
	Number            string          `json:"number"`
	RecordID          string          `json:"record_id"`
	Type              string          `json:"type"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
	QuantityReserved  decimal.Decimal `json:"quantity_reserved"`
	QuantityFulfilled decimal.Decimal `json:"quantity_fulfilled"`
	QuantityRemaining decimal.Decimal `json:"quantity_remaining"`
	Status            string          `json:"status"`
	Priority          int             `json:"priority"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	AutoRelease       bool            `json:"auto_release"`
	IsFirm            bool            `json:"is_firm"`
	ReleaseReason     string          `json:"release_reason,omitempty"`
	ReferenceType     string          `json:"reference_type,omitempty"`
	ReferenceID       string          `json:"reference_id,omitempty"`
	ReservedAt        time.Time       `json:"reserved_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ReservationFromEntity mapea la entidad al DTO de respuesta.
func ReservationFromEntity(r *entity.StockReservation) ReservationResponse {
	return ReservationResponse{
		ID:                r.ID,
		Number:            r.Number,
		RecordID:          r.RecordID,
		Type:              string(r.Type),
		QuantityRequested: r.QuantityRequested,
		QuantityReserved:  r.QuantityReserved,
		QuantityFulfilled: r.QuantityFulfilled,
		QuantityRemaining: r.QuantityRemaining,
		Status:            string(r.Status),
		Priority:          r.Priority,
		ExpiresAt:         r.ExpiresAt,
		AutoRelease:       r.AutoRelease,
		IsFirm:            r.IsFirm,
		ReleaseReason:     r.ReleaseReason,
		ReferenceType:     r.ReferenceType,
		ReferenceID:       r.ReferenceID,
		ReservedAt:        r.ReservedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// FulfillRequest body para cumplir parcial o totalmente una reserva.
type FulfillRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// ReleaseRequest body para cancelar una reserva.
type ReleaseRequest struct {
	Reason string `json:"reason,omitempty"`
}

// OverrideRequest body para fijar el override de tienda.
type OverrideRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// PullRequest body para fijar la cantidad de tienda desde un canal externo.
type PullRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Source   string          `json:"source"`
}

// ReplenishmentItemDTO un registro bajo su punto de reorden.
type ReplenishmentItemDTO struct {
	RecordID        string          `json:"record_id"`
	ProductID       string          `json:"product_id"`
	VariantID       *string         `json:"variant_id,omitempty"`
	OwnerID         string          `json:"owner_id"`
	Available       decimal.Decimal `json:"available"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
}

// ReplenishmentFromItem mapea el item del repositorio al DTO.
func ReplenishmentFromItem(it repository.ReplenishmentItem) ReplenishmentItemDTO {
	return ReplenishmentItemDTO{
		RecordID:        it.RecordID,
		ProductID:       it.ProductID,
		VariantID:       it.VariantID,
		OwnerID:         it.OwnerID,
		Available:       it.Available,
		ReorderPoint:    it.ReorderPoint,
		ReorderQuantity: it.ReorderQuantity,
		UnitCost:        it.UnitCost,
	}
}

// InheritanceLogDTO una entrada de la bitácora de resolución.
type InheritanceLogDTO struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	VariantID       *string         `json:"variant_id,omitempty"`
	ShopID          string          `json:"shop_id"`
	Action          string          `json:"action"`
	SourceWarehouse *string         `json:"source_warehouse_id,omitempty"`
	QuantityBefore  decimal.Decimal `json:"quantity_before"`
	QuantityAfter   decimal.Decimal `json:"quantity_after"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// InheritanceLogFromEntity mapea la entidad al DTO.
func InheritanceLogFromEntity(l *entity.StockInheritanceLog) InheritanceLogDTO {
	return InheritanceLogDTO{
		ID:              l.ID,
		ProductID:       l.ProductID,
		VariantID:       l.VariantID,
		ShopID:          l.ShopID,
		Action:          string(l.Action),
		SourceWarehouse: l.SourceWarehouseID,
		QuantityBefore:  l.QuantityBefore,
		QuantityAfter:   l.QuantityAfter,
		Metadata:        l.Metadata,
		CreatedAt:       l.CreatedAt,
	}
}

// WarehouseRequest body para crear una bodega.
type WarehouseRequest struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	IsDefault bool   `json:"is_default,omitempty"`
}

// WarehouseResponse una bodega.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// WarehouseFromEntity mapea la entidad al DTO.
func WarehouseFromEntity(w *entity.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Address:   w.Address,
		IsDefault: w.IsDefault,
		CreatedAt: w.CreatedAt,
	}
}
