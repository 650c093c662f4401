package orders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nileshbarai/distrokhata-backend/internal/catalog"
	"github.com/nileshbarai/distrokhata-backend/internal/ledger"
	"github.com/nileshbarai/distrokhata-backend/internal/notify"
	"github.com/nileshbarai/distrokhata-backend/internal/subscription"
	"github.com/nileshbarai/distrokhata-backend/internal/users"
	"github.com/nileshbarai/distrokhata-backend/internal/window"
	"github.com/nileshbarai/distrokhata-backend/pkg/auth"
	"github.com/nileshbarai/distrokhata-backend/pkg/db"
	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
	pkgerrors "github.com/nileshbarai/distrokhata-backend/pkg/errors"
	"github.com/nileshbarai/distrokhata-backend/pkg/metrics"
)

const maxOrderNoAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the order lifecycle engine: window-gated intake with same-window
// merging, the status/payment state machine, and the ledger bridge that turns
// transitions into postings.
type Service interface {
	Create(ctx context.Context, actor auth.Identity, input CreateOrderInput) (*CreateOrderResult, error)
	Update(ctx context.Context, actor auth.Identity, orderID int64, input UpdateOrderInput) (*models.Order, error)
	Get(ctx context.Context, actor auth.Identity, orderID int64) (*models.Order, error)
	List(ctx context.Context, actor auth.Identity, filter ListFilter) (*ListResult, error)
	Window(now time.Time) WindowInfo
	CompleteOrders(ctx context.Context, actor auth.Identity, ids []int64) ([]models.Order, error)
	UpdatePaymentStatus(ctx context.Context, actor auth.Identity, ids []int64, status enums.PaymentStatus) ([]models.Order, error)
	CancelOrders(ctx context.Context, actor auth.Identity, ids []int64) ([]models.Order, error)
	CancelOrder(ctx context.Context, actor auth.Identity, id int64) (*models.Order, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	users    users.Service
	catalog  catalog.PriceLookup
	ledger   ledger.Service
	gate     subscription.Gate
	resolver *window.Resolver
	notifier notify.Notifier
	metrics  *metrics.DomainMetrics
	clock    func() time.Time
}

// NewService wires the order engine with its collaborators. Metrics may be
// nil; clock defaults to time.Now.
func NewService(
	repo Repository,
	tx txRunner,
	userSvc users.Service,
	priceLookup catalog.PriceLookup,
	ledgerSvc ledger.Service,
	gate subscription.Gate,
	resolver *window.Resolver,
	notifier notify.Notifier,
	domainMetrics *metrics.DomainMetrics,
	clock func() time.Time,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if userSvc == nil {
		return nil, fmt.Errorf("users service required")
	}
	if priceLookup == nil {
		return nil, fmt.Errorf("catalog price lookup required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if gate == nil {
		return nil, fmt.Errorf("subscription gate required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("window resolver required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:     repo,
		tx:       tx,
		users:    userSvc,
		catalog:  priceLookup,
		ledger:   ledgerSvc,
		gate:     gate,
		resolver: resolver,
		notifier: notifier,
		metrics:  domainMetrics,
		clock:    clock,
	}, nil
}

// Window reports the resolver's view of now for the current-window endpoint.
func (s *service) Window(now time.Time) WindowInfo {
	return WindowInfo{
		Enabled:       s.resolver.Enabled(),
		CurrentWindow: s.resolver.Current(now),
		TargetWindow:  s.resolver.Target(now),
		ServerTime:    now,
	}
}

func (s *service) Create(ctx context.Context, actor auth.Identity, input CreateOrderInput) (*CreateOrderResult, error) {
	if err := validateItemInputs(input.Items); err != nil {
		return nil, err
	}

	distributorID := input.DistributorID
	if actor.Role == enums.UserRoleDistributor {
		if distributorID != 0 && distributorID != actor.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "distributors may only order for themselves")
		}
		distributorID = actor.UserID
	}
	if distributorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}

	now := s.clock()
	target := enums.DeliveryWindowNone
	if s.resolver.Enabled() {
		target = s.resolver.Target(now)
		if target == enums.DeliveryWindowNone {
			return nil, pkgerrors.New(pkgerrors.CodeOutsideWindow, "ordering is closed right now").
				WithDetails(map[string]any{"current_window": s.resolver.Current(now).String()})
		}
	}

	var result *CreateOrderResult
	var err error
	for attempt := 0; attempt < maxOrderNoAttempts; attempt++ {
		result, err = s.createOnce(ctx, actor, distributorID, input.Items, now, target)
		if err != nil && db.IsUniqueViolation(err, "uq_orders_order_no") {
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	if result.Merged {
		s.metrics.IncOrderMerged()
		s.publish(ctx, notify.EventOrderMerged, result.Order)
	} else {
		s.metrics.IncOrderCreated(windowLabel(result.Order.DeliveryWindow))
		s.publish(ctx, notify.EventOrderCreated, result.Order)
	}
	return result, nil
}

// createOnce runs one create/merge attempt in its own transaction. A unique
// violation on the order number bubbles up so the caller can retry with a
// fresh number.
func (s *service) createOnce(ctx context.Context, actor auth.Identity, distributorID int64, items []OrderItemInput, now time.Time, target enums.DeliveryWindow) (*CreateOrderResult, error) {
	var result *CreateOrderResult

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		tenantScope := actor.TenantID
		if actor.CrossTenant() {
			tenantScope = nil
		}
		distributor, err := s.users.GetDistributor(ctx, tx, distributorID, tenantScope)
		if err != nil {
			return err
		}

		var existing *models.Order
		if s.resolver.Enabled() {
			dayStart, dayEnd := s.resolver.DayBounds(now)
			existing, err = repo.FindPendingForMerge(ctx, distributor.TenantID, distributor.ID, target, dayStart, dayEnd, true)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find merge candidate")
			}
		}

		if existing != nil {
			merged, err := s.mergeInto(ctx, tx, existing, items, actor.UserID)
			if err != nil {
				return err
			}
			result = &CreateOrderResult{Order: merged, Merged: true}
			return nil
		}

		// Merges fold into an already-counted order, so the quota gate only
		// guards brand new orders.
		if !actor.CrossTenant() && distributor.TenantID != nil {
			if err := s.gate.CanCreateOrder(ctx, tx, *distributor.TenantID, now); err != nil {
				return err
			}
		}

		lines, total, err := s.snapshotLines(ctx, tx, items)
		if err != nil {
			return err
		}

		order := &models.Order{
			TenantID:      distributor.TenantID,
			OrderNo:       generateOrderNo(now),
			DistributorID: distributor.ID,
			Status:        enums.OrderStatusPending,
			PaymentStatus: enums.PaymentStatusUnpaid,
			TotalAmount:   total,
			Items:         linesToModels(lines, 0),
			CreatedBy:     &actor.UserID,
		}
		if target != enums.DeliveryWindowNone {
			w := target
			order.DeliveryWindow = &w
		}
		if err := repo.Create(ctx, order); err != nil {
			return err
		}

		if distributor.TenantID != nil {
			if err := s.gate.OrderCreated(ctx, tx, *distributor.TenantID, now); err != nil {
				return err
			}
		}

		result = &CreateOrderResult{Order: order, Merged: false}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// mergeInto folds incoming lines into the open order: quantities sum per
// item, every line re-snapshots the current catalog rate, and the item set
// is replaced wholesale.
func (s *service) mergeInto(ctx context.Context, tx *gorm.DB, order *models.Order, incoming []OrderItemInput, actorID int64) (*models.Order, error) {
	repo := s.repo.WithTx(tx)

	merged := make([]quantityLine, 0, len(order.Items)+len(incoming))
	index := make(map[int64]int, len(order.Items))
	for _, item := range order.Items {
		index[item.ItemID] = len(merged)
		merged = append(merged, quantityLine{
			itemID:       item.ItemID,
			qty:          item.Qty,
			orderedByBox: item.OrderedByBox,
			boxCount:     item.BoxCount,
		})
	}
	for _, item := range incoming {
		if pos, ok := index[item.ItemID]; ok {
			merged[pos].qty += item.Qty
			merged[pos].boxCount += item.BoxCount
			merged[pos].orderedByBox = merged[pos].orderedByBox || item.OrderedByBox
			continue
		}
		index[item.ItemID] = len(merged)
		merged = append(merged, quantityLine{
			itemID:       item.ItemID,
			qty:          item.Qty,
			orderedByBox: item.OrderedByBox,
			boxCount:     item.BoxCount,
		})
	}

	ids := make([]int64, len(merged))
	for i, line := range merged {
		ids[i] = line.itemID
	}
	rates, err := s.catalog.Rates(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i := range merged {
		item := rates[merged[i].itemID]
		merged[i].rate = item.Rate
		merged[i].boxRate = item.BoxRate
		total = total.Add(item.Rate.Mul(decimal.NewFromInt(int64(merged[i].qty))))
	}

	if err := repo.ReplaceItems(ctx, order.ID, linesToModels(merged, order.ID)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace order items")
	}

	order.TotalAmount = total
	order.UpdatedBy = &actorID
	if err := repo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save merged order")
	}

	reloaded, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload merged order")
	}
	return reloaded, nil
}

// snapshotLines prices the requested items at current catalog rates.
func (s *service) snapshotLines(ctx context.Context, tx *gorm.DB, items []OrderItemInput) ([]quantityLine, decimal.Decimal, error) {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ItemID
	}
	rates, err := s.catalog.Rates(ctx, tx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	lines := make([]quantityLine, 0, len(items))
	index := make(map[int64]int, len(items))
	total := decimal.Zero
	for _, item := range items {
		if pos, ok := index[item.ItemID]; ok {
			lines[pos].qty += item.Qty
			lines[pos].boxCount += item.BoxCount
			lines[pos].orderedByBox = lines[pos].orderedByBox || item.OrderedByBox
			continue
		}
		catalogItem := rates[item.ItemID]
		index[item.ItemID] = len(lines)
		lines = append(lines, quantityLine{
			itemID:       item.ItemID,
			qty:          item.Qty,
			rate:         catalogItem.Rate,
			orderedByBox: item.OrderedByBox,
			boxCount:     item.BoxCount,
			boxRate:      catalogItem.BoxRate,
		})
	}
	for _, line := range lines {
		total = total.Add(line.rate.Mul(decimal.NewFromInt(int64(line.qty))))
	}
	return lines, total, nil
}

func (s *service) Update(ctx context.Context, actor auth.Identity, orderID int64, input UpdateOrderInput) (*models.Order, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := validateItemInputs(input.Items); err != nil {
		return nil, err
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadScoped(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be updated").
				WithDetails(map[string]any{"order_no": order.OrderNo, "status": order.Status.String()})
		}

		if input.DistributorID != nil && *input.DistributorID != order.DistributorID {
			if !actor.IsAdmin() {
				return pkgerrors.New(pkgerrors.CodeForbidden, "only admins may reassign orders")
			}
			tenantScope := actor.TenantID
			if actor.CrossTenant() {
				tenantScope = nil
			}
			distributor, err := s.users.GetDistributor(ctx, tx, *input.DistributorID, tenantScope)
			if err != nil {
				return err
			}
			order.DistributorID = distributor.ID
			order.TenantID = distributor.TenantID
		}

		lines, total, err := s.snapshotLines(ctx, tx, input.Items)
		if err != nil {
			return err
		}
		if err := repo.ReplaceItems(ctx, order.ID, linesToModels(lines, order.ID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace order items")
		}

		order.TotalAmount = total
		order.UpdatedBy = &actor.UserID
		order.Items = nil
		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}

		updated, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Get(ctx context.Context, actor auth.Identity, orderID int64) (*models.Order, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.loadScoped(ctx, s.repo, actor, orderID)
}

// loadScoped fetches an order and hides it from actors outside its scope.
func (s *service) loadScoped(ctx context.Context, repo Repository, actor auth.Identity, orderID int64) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if actor.Role == enums.UserRoleDistributor && order.DistributorID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if !actor.CrossTenant() && actor.TenantID != nil {
		if order.TenantID == nil || *order.TenantID != *actor.TenantID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	}
	return order, nil
}

func (s *service) List(ctx context.Context, actor auth.Identity, filter ListFilter) (*ListResult, error) {
	if actor.Role == enums.UserRoleDistributor {
		own := actor.UserID
		filter.DistributorID = &own
	}
	var tenantScope *int64
	if !actor.CrossTenant() {
		tenantScope = actor.TenantID
	}

	orders, total, err := s.repo.List(ctx, tenantScope, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &ListResult{Orders: orders, Total: total}, nil
}

// CompleteOrders moves the whole batch pending -> completed and posts one
// sale debit per order. Validation covers the entire id set before any write.
func (s *service) CompleteOrders(ctx context.Context, actor auth.Identity, ids []int64) ([]models.Order, error) {
	if err := requireAdminBatch(actor, ids); err != nil {
		return nil, err
	}

	now := s.clock()
	var completed []models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		orders, err := s.loadBatch(ctx, repo, actor, ids)
		if err != nil {
			return err
		}
		if offenders := orderNosWhere(orders, func(o models.Order) bool {
			return o.Status != enums.OrderStatusPending
		}); len(offenders) > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be completed").
				WithDetails(map[string]any{"order_nos": offenders})
		}

		for i := range orders {
			order := &orders[i]
			if order.TenantID == nil {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no tenant to bill against").
					WithDetails(map[string]any{"order_nos": []string{order.OrderNo}})
			}
			order.Status = enums.OrderStatusCompleted
			order.UpdatedBy = &actor.UserID
			if err := repo.Save(ctx, order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
			}

			orderID := order.ID
			if _, err := s.ledger.Debit(ctx, tx, ledger.AppendInput{
				TenantID:      *order.TenantID,
				DistributorID: order.DistributorID,
				Amount:        order.TotalAmount,
				ReferenceType: enums.LedgerReferenceOrder,
				ReferenceID:   &orderID,
				Narration:     fmt.Sprintf("Order %s - Sale", order.OrderNo),
				EntryDate:     now,
				ActorID:       &actor.UserID,
			}); err != nil {
				return err
			}
		}
		completed = orders
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range completed {
		s.publish(ctx, notify.EventOrderCompleted, &completed[i])
	}
	return completed, nil
}

// UpdatePaymentStatus moves the whole batch to the requested payment state.
// Reaching paid requires a completed order and posts a payment credit;
// leaving paid posts a reversal debit.
func (s *service) UpdatePaymentStatus(ctx context.Context, actor auth.Identity, ids []int64, status enums.PaymentStatus) ([]models.Order, error) {
	if err := requireAdminBatch(actor, ids); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment status %q", status)
	}

	now := s.clock()
	var updated []models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		orders, err := s.loadBatch(ctx, repo, actor, ids)
		if err != nil {
			return err
		}
		if offenders := orderNosWhere(orders, func(o models.Order) bool {
			return !paymentTransitionAllowed(o, status)
		}); len(offenders) > 0 {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "payment status %s not allowed for these orders", status).
				WithDetails(map[string]any{"order_nos": offenders})
		}

		for i := range orders {
			order := &orders[i]
			previous := order.PaymentStatus
			if previous == status {
				continue
			}

			order.PaymentStatus = status
			order.UpdatedBy = &actor.UserID
			if err := repo.Save(ctx, order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
			}

			orderID := order.ID
			switch {
			case status == enums.PaymentStatusPaid:
				if _, err := s.ledger.Credit(ctx, tx, ledger.AppendInput{
					TenantID:      *order.TenantID,
					DistributorID: order.DistributorID,
					Amount:        order.TotalAmount,
					ReferenceType: enums.LedgerReferencePayment,
					ReferenceID:   &orderID,
					Narration:     fmt.Sprintf("Payment received for Order %s", order.OrderNo),
					EntryDate:     now,
					ActorID:       &actor.UserID,
				}); err != nil {
					return err
				}
			case previous == enums.PaymentStatusPaid && status == enums.PaymentStatusUnpaid:
				if _, err := s.ledger.Debit(ctx, tx, ledger.AppendInput{
					TenantID:      *order.TenantID,
					DistributorID: order.DistributorID,
					Amount:        order.TotalAmount,
					ReferenceType: enums.LedgerReferenceAdjustment,
					ReferenceID:   &orderID,
					Narration:     fmt.Sprintf("Payment reversal for Order %s", order.OrderNo),
					EntryDate:     now,
					ActorID:       &actor.UserID,
				}); err != nil {
					return err
				}
			}
		}
		updated = orders
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// paymentTransitionAllowed enforces the payment axis gating. Cancelled
// orders are frozen; paid is reachable only from a completed order; a paid
// order can only step back to unpaid (full reversal).
func paymentTransitionAllowed(order models.Order, target enums.PaymentStatus) bool {
	if order.Status == enums.OrderStatusCancelled {
		return false
	}
	switch target {
	case enums.PaymentStatusPaid:
		return order.Status == enums.OrderStatusCompleted &&
			order.PaymentStatus != enums.PaymentStatusPaid &&
			order.TenantID != nil
	case enums.PaymentStatusPartial:
		return order.PaymentStatus != enums.PaymentStatusPaid
	case enums.PaymentStatusUnpaid:
		return true
	}
	return false
}

// CancelOrders cancels the whole batch of pending orders. Cancelled-while-
// pending orders never touched the ledger so there is nothing to reverse;
// their subscription slots are released.
func (s *service) CancelOrders(ctx context.Context, actor auth.Identity, ids []int64) ([]models.Order, error) {
	if err := requireAdminBatch(actor, ids); err != nil {
		return nil, err
	}

	var cancelled []models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		orders, err := s.loadBatch(ctx, repo, actor, ids)
		if err != nil {
			return err
		}
		if offenders := orderNosWhere(orders, func(o models.Order) bool {
			return o.Status != enums.OrderStatusPending
		}); len(offenders) > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled").
				WithDetails(map[string]any{"order_nos": offenders})
		}

		for i := range orders {
			if err := s.cancelOne(ctx, tx, &orders[i], actor.UserID); err != nil {
				return err
			}
		}
		cancelled = orders
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// CancelOrder cancels one pending order. Distributors may cancel their own.
func (s *service) CancelOrder(ctx context.Context, actor auth.Identity, id int64) (*models.Order, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadScoped(ctx, repo, actor, id)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled").
				WithDetails(map[string]any{"order_nos": []string{order.OrderNo}})
		}
		if err := s.cancelOne(ctx, tx, order, actor.UserID); err != nil {
			return err
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *service) cancelOne(ctx context.Context, tx *gorm.DB, order *models.Order, actorID int64) error {
	repo := s.repo.WithTx(tx)

	order.Status = enums.OrderStatusCancelled
	order.UpdatedBy = &actorID
	order.Items = nil
	if err := repo.Save(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}
	if order.TenantID != nil {
		if err := s.gate.OrderReleased(ctx, tx, *order.TenantID, order.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

// loadBatch resolves the full id set against the actor's tenant scope and
// reports every missing id before anything is written.
func (s *service) loadBatch(ctx context.Context, repo Repository, actor auth.Identity, ids []int64) ([]models.Order, error) {
	var tenantScope *int64
	if !actor.CrossTenant() {
		tenantScope = actor.TenantID
	}
	orders, err := repo.FindByIDs(ctx, tenantScope, dedupeIDs(ids))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
	}

	found := make(map[int64]struct{}, len(orders))
	for _, order := range orders {
		found[order.ID] = struct{}{}
	}
	var missing []int64
	for _, id := range dedupeIDs(ids) {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "orders not found").
			WithDetails(map[string]any{"order_ids": missing})
	}
	return orders, nil
}

func (s *service) publish(ctx context.Context, event string, order *models.Order) {
	summary := notify.OrderSummary{
		Event:         event,
		OrderID:       order.ID,
		OrderNo:       order.OrderNo,
		DistributorID: order.DistributorID,
		TotalAmount:   order.TotalAmount,
	}
	if order.Distributor != nil {
		summary.DistributorName = order.Distributor.FullName()
	}
	for _, item := range order.Items {
		line := notify.OrderLine{
			ItemID: item.ItemID,
			Qty:    item.Qty,
			Rate:   item.Rate,
			Amount: item.Amount,
		}
		if item.Item != nil {
			line.ItemName = item.Item.Name
		}
		summary.Lines = append(summary.Lines, line)
	}
	s.notifier.Notify(ctx, summary)
}

func requireAdminBatch(actor auth.Identity, ids []int64) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if len(ids) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one order id is required")
	}
	for _, id := range ids {
		if id <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "order ids must be positive")
		}
	}
	return nil
}

func validateItemInputs(items []OrderItemInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for _, item := range items {
		if item.ItemID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item id required on every line")
		}
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive on every line").
				WithDetails(map[string]any{"item_id": item.ItemID})
		}
		if item.BoxCount < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "box count cannot be negative").
				WithDetails(map[string]any{"item_id": item.ItemID})
		}
	}
	return nil
}

func orderNosWhere(orders []models.Order, pred func(models.Order) bool) []string {
	var offenders []string
	for _, order := range orders {
		if pred(order) {
			offenders = append(offenders, order.OrderNo)
		}
	}
	return offenders
}

func linesToModels(lines []quantityLine, orderID int64) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.qty))
		items = append(items, models.OrderItem{
			OrderID:      orderID,
			ItemID:       line.itemID,
			Qty:          line.qty,
			Rate:         line.rate,
			Amount:       line.rate.Mul(qty),
			OrderedByBox: line.orderedByBox,
			BoxCount:     line.boxCount,
			BoxRate:      line.boxRate,
		})
	}
	return items
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func windowLabel(w *enums.DeliveryWindow) string {
	if w == nil {
		return enums.DeliveryWindowNone.String()
	}
	return w.String()
}

func generateOrderNo(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%06d", now.Format("20060102"), rand.IntN(1000000))
}
