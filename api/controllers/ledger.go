package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nileshbarai/distrokhata-backend/api/responses"
	"github.com/nileshbarai/distrokhata-backend/api/validators"
	"github.com/nileshbarai/distrokhata-backend/internal/ledger"
	"github.com/nileshbarai/distrokhata-backend/pkg/auth"
	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
	pkgerrors "github.com/nileshbarai/distrokhata-backend/pkg/errors"
	"github.com/nileshbarai/distrokhata-backend/pkg/logger"
)

type manualEntryRequest struct {
	TenantID      *int64          `json:"tenant_id" validate:"omitempty,gt=0"`
	DistributorID int64           `json:"distributor_id" validate:"required,gt=0"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	EntryType     string          `json:"entry_type,omitempty"`
	Narration     string          `json:"narration" validate:"required,max=500"`
	EntryDate     string          `json:"entry_date,omitempty"`
}

// tenantScopeFor resolves the tenant a ledger operation acts on. Tenant
// admins are pinned to their own tenant; master admins must name one.
func tenantScopeFor(actor auth.Identity, explicit *int64) (int64, error) {
	if actor.TenantID != nil {
		return *actor.TenantID, nil
	}
	if actor.CrossTenant() && explicit != nil {
		return *explicit, nil
	}
	return 0, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
}

func (req manualEntryRequest) entryDate(now time.Time) (time.Time, error) {
	if req.EntryDate == "" {
		return now, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", req.EntryDate, time.UTC)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "entry_date must be a YYYY-MM-DD date")
	}
	return parsed, nil
}

func DistributorBalance(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		distributorID, err := pathID(r, "distributorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		explicitTenant, err := validators.ParseQueryInt64(r, "tenant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenantID, err := tenantScopeFor(actor, explicitTenant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), tenantID, distributorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"distributor_id": distributorID,
			"balance":        balance,
		})
	}
}

func DistributorStatement(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		distributorID, err := pathID(r, "distributorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		explicitTenant, err := validators.ParseQueryInt64(r, "tenant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenantID, err := tenantScopeFor(actor, explicitTenant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		statement, err := svc.Statement(r.Context(), ledger.StatementInput{
			TenantID:      tenantID,
			DistributorID: distributorID,
			From:          from,
			To:            to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statement)
	}
}

func OutstandingReport(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		explicitTenant, err := validators.ParseQueryInt64(r, "tenant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenantID, err := tenantScopeFor(actor, explicitTenant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Outstanding(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func LedgerSummary(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		explicitTenant, err := validators.ParseQueryInt64(r, "tenant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenantID, err := tenantScopeFor(actor, explicitTenant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), tenantID, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// RecordPayment posts a manual payment credit against a distributor.
func RecordPayment(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req manualEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenantID, err := tenantScopeFor(actor, req.TenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entryDate, err := req.entryDate(time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := actor.UserID
		entry, err := svc.RecordPayment(r.Context(), ledger.ManualEntryInput{
			TenantID:      tenantID,
			DistributorID: req.DistributorID,
			Amount:        req.Amount,
			Narration:     req.Narration,
			EntryDate:     entryDate,
			ActorID:       &actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

// RecordAdjustment posts a manual correction in either direction.
func RecordAdjustment(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req manualEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entryType, err := enums.ParseLedgerEntryType(req.EntryType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "entry_type must be debit or credit"))
			return
		}
		tenantID, err := tenantScopeFor(actor, req.TenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entryDate, err := req.entryDate(time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := actor.UserID
		entry, err := svc.RecordAdjustment(r.Context(), ledger.ManualEntryInput{
			TenantID:      tenantID,
			DistributorID: req.DistributorID,
			Amount:        req.Amount,
			EntryType:     entryType,
			Narration:     req.Narration,
			EntryDate:     entryDate,
			ActorID:       &actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}
