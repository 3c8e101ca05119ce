package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InheritanceAction acción registrada en la bitácora de resolución tienda/bodega.
type InheritanceAction string

const (
	InheritanceInherit  InheritanceAction = "inherit"  // la tienda cae al registro de bodega
	InheritancePull     InheritanceAction = "pull"     // la tienda toma stock de un canal externo
	InheritanceOverride InheritanceAction = "override" // la tienda materializa su propio registro
	InheritanceSync     InheritanceAction = "sync"     // copia de bodega por defecto hacia la tienda
)

// StockInheritanceLog es una bitácora append-only de cómo se derivó el stock efectivo de
// una tienda. Puramente observacional: no afecta saldos.
type StockInheritanceLog struct {
	ID        string
	ProductID string
	VariantID *string
	ShopID    string
	Action    InheritanceAction

	SourceWarehouseID *string
	QuantityBefore    decimal.Decimal
	QuantityAfter     decimal.Decimal
	Metadata          map[string]any

	CreatedAt time.Time
	CreatedBy string
}
