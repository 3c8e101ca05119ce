package stock_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria. El TxRunner serializa las transacciones con un mutex (el
// equivalente grueso del FOR UPDATE) y revierte el estado si fn falla, para que
// los tests vean la misma atomicidad que da PostgreSQL.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu sync.Mutex

	records   map[string]entity.StockRecord // por ID
	recordKey map[string]string             // clave compuesta -> ID

	movements map[string]entity.StockMovement
	corrKey   map[string]string // correlation_key -> movement ID
	movOrder  []string          // orden de inserción

	reservations map[string]entity.StockReservation
	resNumber    map[string]string

	logs []entity.StockInheritanceLog
}

func newMemStore() *memStore {
	return &memStore{
		records:      make(map[string]entity.StockRecord),
		recordKey:    make(map[string]string),
		movements:    make(map[string]entity.StockMovement),
		corrKey:      make(map[string]string),
		reservations: make(map[string]entity.StockReservation),
		resNumber:    make(map[string]string),
	}
}

func recordKeyOf(productID string, variantID *string, owner entity.Owner) string {
	v := ""
	if variantID != nil {
		v = *variantID
	}
	return productID + "|" + v + "|" + string(owner.Kind) + ":" + owner.ID
}

type storeSnapshot struct {
	records      map[string]entity.StockRecord
	recordKey    map[string]string
	movements    map[string]entity.StockMovement
	corrKey      map[string]string
	movOrder     []string
	reservations map[string]entity.StockReservation
	resNumber    map[string]string
	logs         []entity.StockInheritanceLog
}

func (s *memStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		records:      make(map[string]entity.StockRecord, len(s.records)),
		recordKey:    make(map[string]string, len(s.recordKey)),
		movements:    make(map[string]entity.StockMovement, len(s.movements)),
		corrKey:      make(map[string]string, len(s.corrKey)),
		movOrder:     append([]string(nil), s.movOrder...),
		reservations: make(map[string]entity.StockReservation, len(s.reservations)),
		resNumber:    make(map[string]string, len(s.resNumber)),
		logs:         append([]entity.StockInheritanceLog(nil), s.logs...),
	}
	for k, v := range s.records {
		snap.records[k] = v
	}
	for k, v := range s.recordKey {
		snap.recordKey[k] = v
	}
	for k, v := range s.movements {
		snap.movements[k] = v
	}
	for k, v := range s.corrKey {
		snap.corrKey[k] = v
	}
	for k, v := range s.reservations {
		snap.reservations[k] = v
	}
	for k, v := range s.resNumber {
		snap.resNumber[k] = v
	}
	return snap
}

func (s *memStore) restore(snap storeSnapshot) {
	s.records = snap.records
	s.recordKey = snap.recordKey
	s.movements = snap.movements
	s.corrKey = snap.corrKey
	s.movOrder = snap.movOrder
	s.reservations = snap.reservations
	s.resNumber = snap.resNumber
	s.logs = snap.logs
}

type memTxRunner struct {
	store *memStore
}

var _ stock.TxRunner = (*memTxRunner)(nil)

func (r *memTxRunner) Run(ctx context.Context, fn func(
	recordRepo repository.StockRecordRepository,
	movementRepo repository.StockMovementRepository,
	reservationRepo repository.StockReservationRepository,
	inheritanceRepo repository.InheritanceLogRepository,
) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	snap := r.store.snapshot()
	err := fn(
		&memRecordRepo{s: r.store},
		&memMovementRepo{s: r.store},
		&memReservationRepo{s: r.store},
		&memLogRepo{s: r.store},
	)
	if err != nil {
		r.store.restore(snap)
	}
	return err
}

// ── StockRecordRepository ────────────────────────────────────────────────────

type memRecordRepo struct{ s *memStore }

var _ repository.StockRecordRepository = (*memRecordRepo)(nil)

func (r *memRecordRepo) Get(_ context.Context, productID string, variantID *string, owner entity.Owner) (*entity.StockRecord, error) {
	id, ok := r.s.recordKey[recordKeyOf(productID, variantID, owner)]
	if !ok {
		return nil, nil
	}
	rec := r.s.records[id]
	return &rec, nil
}

func (r *memRecordRepo) GetByID(_ context.Context, id string) (*entity.StockRecord, error) {
	rec, ok := r.s.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *memRecordRepo) GetForUpdate(ctx context.Context, productID string, variantID *string, owner entity.Owner) (*entity.StockRecord, error) {
	return r.Get(ctx, productID, variantID, owner)
}

func (r *memRecordRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *memRecordRepo) Create(_ context.Context, record *entity.StockRecord) error {
	key := recordKeyOf(record.ProductID, record.VariantID, record.Owner)
	if _, exists := r.s.recordKey[key]; exists {
		return domain.ErrDuplicate
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	r.s.recordKey[key] = record.ID
	r.s.records[record.ID] = *record
	return nil
}

func (r *memRecordRepo) Update(_ context.Context, record *entity.StockRecord) error {
	if _, ok := r.s.records[record.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.records[record.ID] = *record
	return nil
}

func (r *memRecordRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockRecord, error) {
	var out []*entity.StockRecord
	for id := range r.s.records {
		rec := r.s.records[id]
		if rec.ProductID == productID {
			c := rec
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memRecordRepo) ListBelowReorderPoint(_ context.Context, ownerID string) ([]repository.ReplenishmentItem, error) {
	var out []repository.ReplenishmentItem
	for id := range r.s.records {
		rec := r.s.records[id]
		if rec.Status != entity.RecordStatusActive || !rec.BelowReorderPoint() {
			continue
		}
		if ownerID != "" && rec.Owner.ID != ownerID {
			continue
		}
		out = append(out, repository.ReplenishmentItem{
			RecordID:        rec.ID,
			ProductID:       rec.ProductID,
			VariantID:       rec.VariantID,
			OwnerID:         rec.Owner.ID,
			Available:       rec.AvailableQuantity,
			ReorderPoint:    rec.ReorderPoint,
			ReorderQuantity: rec.ReorderQuantity,
			UnitCost:        rec.UnitCost,
		})
	}
	return out, nil
}

// ── StockMovementRepository ──────────────────────────────────────────────────

type memMovementRepo struct{ s *memStore }

var _ repository.StockMovementRepository = (*memMovementRepo)(nil)

func (r *memMovementRepo) Create(_ context.Context, movement *entity.StockMovement) error {
	if movement.CorrelationKey != nil {
		if _, exists := r.s.corrKey[*movement.CorrelationKey]; exists {
			return domain.ErrDuplicate
		}
	}
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	r.s.movements[movement.ID] = *movement
	r.s.movOrder = append(r.s.movOrder, movement.ID)
	if movement.CorrelationKey != nil {
		r.s.corrKey[*movement.CorrelationKey] = movement.ID
	}
	return nil
}

func (r *memMovementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	m, ok := r.s.movements[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *memMovementRepo) GetByCorrelationKey(_ context.Context, key string) (*entity.StockMovement, error) {
	id, ok := r.s.corrKey[key]
	if !ok {
		return nil, nil
	}
	m := r.s.movements[id]
	return &m, nil
}

func (r *memMovementRepo) ListByTransaction(_ context.Context, transactionID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, id := range r.s.movOrder {
		m := r.s.movements[id]
		if m.TransactionID == transactionID {
			c := m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memMovementRepo) ListByRecord(_ context.Context, recordID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, id := range r.s.movOrder {
		m := r.s.movements[id]
		if m.RecordID != recordID {
			continue
		}
		if from != nil && m.MovementDate.Before(*from) {
			continue
		}
		if to != nil && m.MovementDate.After(*to) {
			continue
		}
		c := m
		out = append(out, &c)
	}
	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ── StockReservationRepository ───────────────────────────────────────────────

type memReservationRepo struct{ s *memStore }

var _ repository.StockReservationRepository = (*memReservationRepo)(nil)

func (r *memReservationRepo) Create(_ context.Context, reservation *entity.StockReservation) error {
	if _, exists := r.s.resNumber[reservation.Number]; exists {
		return domain.ErrDuplicate
	}
	if reservation.ID == "" {
		reservation.ID = uuid.New().String()
	}
	r.s.reservations[reservation.ID] = *reservation
	r.s.resNumber[reservation.Number] = reservation.ID
	return nil
}

func (r *memReservationRepo) GetByID(_ context.Context, id string) (*entity.StockReservation, error) {
	v, ok := r.s.reservations[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r *memReservationRepo) GetByNumber(_ context.Context, number string) (*entity.StockReservation, error) {
	id, ok := r.s.resNumber[number]
	if !ok {
		return nil, nil
	}
	v := r.s.reservations[id]
	return &v, nil
}

func (r *memReservationRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.StockReservation, error) {
	return r.GetByID(ctx, id)
}

func (r *memReservationRepo) Update(_ context.Context, reservation *entity.StockReservation) error {
	if _, ok := r.s.reservations[reservation.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.reservations[reservation.ID] = *reservation
	return nil
}

func (r *memReservationRepo) ListPendingByRecord(_ context.Context, recordID string) ([]*entity.StockReservation, error) {
	var out []*entity.StockReservation
	for id := range r.s.reservations {
		v := r.s.reservations[id]
		if v.RecordID == recordID && v.Status == entity.ReservationPending {
			c := v
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ReservedAt.Before(out[j].ReservedAt)
	})
	return out, nil
}

func (r *memReservationRepo) ListExpirableIDs(_ context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	for id := range r.s.reservations {
		v := r.s.reservations[id]
		if v.ExpiryDue(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids, nil
}

// ── InheritanceLogRepository ─────────────────────────────────────────────────

type memLogRepo struct{ s *memStore }

var _ repository.InheritanceLogRepository = (*memLogRepo)(nil)

func (r *memLogRepo) Create(_ context.Context, log *entity.StockInheritanceLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	r.s.logs = append(r.s.logs, *log)
	return nil
}

func (r *memLogRepo) HasInheritEntry(_ context.Context, productID string, variantID *string, shopID string) (bool, error) {
	for _, l := range r.s.logs {
		if l.ProductID != productID || l.ShopID != shopID || l.Action != entity.InheritanceInherit {
			continue
		}
		if (l.VariantID == nil) != (variantID == nil) {
			continue
		}
		if variantID != nil && *l.VariantID != *variantID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (r *memLogRepo) ListByShopProduct(_ context.Context, shopID, productID string, limit, offset int) ([]*entity.StockInheritanceLog, error) {
	var out []*entity.StockInheritanceLog
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		l := r.s.logs[i]
		if l.ShopID == shopID && l.ProductID == productID {
			c := l
			out = append(out, &c)
		}
	}
	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ── WarehouseRepository ──────────────────────────────────────────────────────

type memWarehouseRepo struct {
	mu         sync.Mutex
	warehouses map[string]entity.Warehouse
}

var _ repository.WarehouseRepository = (*memWarehouseRepo)(nil)

func newMemWarehouseRepo() *memWarehouseRepo {
	return &memWarehouseRepo{warehouses: make(map[string]entity.Warehouse)}
}

func (r *memWarehouseRepo) Create(_ context.Context, warehouse *entity.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if warehouse.ID == "" {
		warehouse.ID = uuid.New().String()
	}
	r.warehouses[warehouse.ID] = *warehouse
	return nil
}

func (r *memWarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.warehouses[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *memWarehouseRepo) GetDefault(_ context.Context) (*entity.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.warehouses {
		w := r.warehouses[id]
		if w.IsDefault {
			return &w, nil
		}
	}
	return nil, nil
}

func (r *memWarehouseRepo) List(_ context.Context) ([]*entity.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Warehouse
	for id := range r.warehouses {
		w := r.warehouses[id]
		out = append(out, &w)
	}
	return out, nil
}

// ── IdempotencyGuard ─────────────────────────────────────────────────────────

type memGuard struct {
	mu   sync.Mutex
	held map[string]bool
}

var _ stock.IdempotencyGuard = (*memGuard)(nil)

func newMemGuard() *memGuard {
	return &memGuard{held: make(map[string]bool)}
}

func (g *memGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *memGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
	return nil
}

func (g *memGuard) isHeld(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held[key]
}
