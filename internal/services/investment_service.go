package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
	"github.com/tobiasceruttigothe/MyFinances/internal/pagination"
)

// MirrorStatus describes what happened to an investment's mirrored expense.
type MirrorStatus string

const (
	MirrorLinked  MirrorStatus = "linked"
	MirrorRemoved MirrorStatus = "removed"
	MirrorSkipped MirrorStatus = "skipped"
	MirrorFailed  MirrorStatus = "failed"
)

// AuditActionMirrorFailed is recorded when the mirrored expense could not be
// created or removed.
const AuditActionMirrorFailed = "MIRROR_FAILED"

// MirrorOutcome reports the result of the best-effort mirror operation.
type MirrorOutcome struct {
	Status        MirrorStatus `json:"status"`
	TransactionID string       `json:"transaction_id,omitempty"`
	Reason        string       `json:"reason,omitempty"`
}

// InvestmentResult is the result of creating an investment.
type InvestmentResult struct {
	Investment *models.Investment `json:"investment"`
	Mirror     MirrorOutcome      `json:"mirror"`
}

// InvestmentInput holds the attributes of a new investment. A nil
// CurrentCapital starts at the initial capital. A nil
// CreateLinkedTransaction defers to the owner's settings.
type InvestmentInput struct {
	Type                    string
	Description             string
	InitialCapital          decimal.Decimal
	CurrentCapital          *decimal.Decimal
	InvestmentDate          *time.Time
	Notes                   string
	CreateLinkedTransaction *bool
}

// InvestmentPatch holds the mutable fields of an investment. The initial
// capital is not among them.
type InvestmentPatch struct {
	CurrentCapital *decimal.Decimal
	Type           *string
	Description    *string
	Notes          *string
}

// investmentService handles investments and their mirrored expenses.
type investmentService struct {
	db           *gorm.DB
	mirror       TransactionMirror
	settings     SettingsSource
	audit        AuditServicer
	categoryName string
	now          func() time.Time
}

// NewInvestmentService creates a new InvestmentServicer. Mirrored expenses
// are filed under categoryName.
func NewInvestmentService(db *gorm.DB, mirror TransactionMirror, settings SettingsSource, audit AuditServicer, categoryName string) InvestmentServicer {
	return &investmentService{
		db:           db,
		mirror:       mirror,
		settings:     settings,
		audit:        audit,
		categoryName: categoryName,
		now:          time.Now,
	}
}

// CreateInvestment persists a new investment and, when requested or enabled
// in the owner's settings, mirrors it as an expense. Mirror failures never
// fail the creation.
func (s *investmentService) CreateInvestment(ctx context.Context, ownerID string, input InvestmentInput) (*InvestmentResult, error) {
	investmentType := normalizeInvestmentType(input.Type)
	if investmentType == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "investment type is required")
	}
	if input.InitialCapital.LessThan(decimal.RequireFromString("0.01")) || !input.InitialCapital.Equal(input.InitialCapital.Round(2)) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "initial capital must be at least 0.01 with at most two decimal places")
	}

	current := input.InitialCapital
	if input.CurrentCapital != nil {
		current = *input.CurrentCapital
		if err := validateCapital(current); err != nil {
			return nil, err
		}
	}

	date := s.now().UTC()
	if input.InvestmentDate != nil && !input.InvestmentDate.IsZero() {
		date = input.InvestmentDate.UTC()
	}

	inv := &models.Investment{
		OwnerID:        ownerID,
		Type:           investmentType,
		Description:    strings.TrimSpace(input.Description),
		InitialCapital: input.InitialCapital,
		CurrentCapital: current,
		InvestmentDate: date,
		Notes:          input.Notes,
	}
	if err := s.db.Create(inv).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	inv.Derive()

	result := &InvestmentResult{Investment: inv, Mirror: MirrorOutcome{Status: MirrorSkipped}}
	if !s.shouldMirror(ctx, ownerID, input.CreateLinkedTransaction) {
		return result, nil
	}

	result.Mirror = s.createMirror(ctx, inv)
	return result, nil
}

// GetInvestmentByID retrieves an investment owned by ownerID.
func (s *investmentService) GetInvestmentByID(ownerID, investmentID string) (*models.Investment, error) {
	var inv models.Investment
	if err := s.db.Where("id = ?", investmentID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvestmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inv.OwnerID != ownerID {
		return nil, apperrors.ErrForbidden
	}
	return &inv, nil
}

// ListInvestments retrieves a page of the owner's investments, newest first.
func (s *investmentService) ListInvestments(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error) {
	query := s.db.Model(&models.Investment{}).Where("owner_id = ?", ownerID)
	result, err := pagination.Fetch[models.Investment](query, page, "investment_date DESC, created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// ListInvestmentsByType lists the owner's investments of one type.
func (s *investmentService) ListInvestmentsByType(ownerID, investmentType string) ([]models.Investment, error) {
	var investments []models.Investment
	if err := s.db.Where("owner_id = ? AND type = ?", ownerID, normalizeInvestmentType(investmentType)).
		Order("investment_date DESC, created_at DESC").
		Find(&investments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if investments == nil {
		investments = []models.Investment{}
	}
	return investments, nil
}

// UpdateInvestment applies patch to an investment owned by ownerID.
func (s *investmentService) UpdateInvestment(ownerID, investmentID string, patch InvestmentPatch) (*models.Investment, error) {
	inv, err := s.GetInvestmentByID(ownerID, investmentID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.CurrentCapital != nil {
		if err := validateCapital(*patch.CurrentCapital); err != nil {
			return nil, err
		}
		updates["current_capital"] = *patch.CurrentCapital
	}
	if patch.Type != nil {
		investmentType := normalizeInvestmentType(*patch.Type)
		if investmentType == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "investment type cannot be empty")
		}
		updates["type"] = investmentType
	}
	if patch.Description != nil {
		updates["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Investment{}).Where("id = ?", inv.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetInvestmentByID(ownerID, investmentID)
}

// DeleteInvestment removes the investment's mirrored expense on a best-effort
// basis and then deletes the investment.
func (s *investmentService) DeleteInvestment(ctx context.Context, ownerID, investmentID string) (*MirrorOutcome, error) {
	inv, err := s.GetInvestmentByID(ownerID, investmentID)
	if err != nil {
		return nil, err
	}

	outcome := MirrorOutcome{Status: MirrorSkipped}
	if inv.LinkedTransactionCreated && inv.LinkedTransactionID != nil && s.mirror != nil {
		txID := *inv.LinkedTransactionID
		if err := s.mirror.DeleteTransaction(ctx, ownerID, txID); err != nil {
			outcome = s.mirrorFailed(inv, "delete", err)
			outcome.TransactionID = txID
		} else {
			outcome = MirrorOutcome{Status: MirrorRemoved, TransactionID: txID}
		}
	}

	if err := s.db.Delete(&models.Investment{}, "id = ?", inv.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &outcome, nil
}

// shouldMirror resolves whether a new investment gets a mirrored expense.
// An explicit flag wins; otherwise the owner's setting decides and an
// unreadable setting means no mirror.
func (s *investmentService) shouldMirror(ctx context.Context, ownerID string, explicit *bool) bool {
	if explicit != nil {
		return *explicit
	}
	if s.settings == nil {
		return false
	}

	settings, err := s.settings.Settings(ctx, ownerID)
	if err != nil {
		logger.Get().Warnw("could not read user settings, not mirroring investment",
			"user_id", ownerID,
			"error", err,
		)
		return false
	}
	return settings.LinkInvestmentsToTransactions
}

func (s *investmentService) createMirror(ctx context.Context, inv *models.Investment) MirrorOutcome {
	if s.mirror == nil {
		return s.mirrorFailed(inv, "create", errors.New("transaction mirror is not configured"))
	}

	label := inv.Description
	if label == "" {
		label = inv.Type
	}

	remote, err := s.mirror.CreateTransaction(ctx, inv.OwnerID, mirrorRequest(inv, label, s.categoryName))
	if err != nil {
		return s.mirrorFailed(inv, "create", err)
	}

	if err := s.db.Model(&models.Investment{}).Where("id = ?", inv.ID).Updates(map[string]interface{}{
		"linked_transaction_created": true,
		"linked_transaction_id":      remote.ID,
	}).Error; err != nil {
		outcome := s.mirrorFailed(inv, "link", fmt.Errorf("recording linked transaction: %w", err))
		outcome.TransactionID = remote.ID
		return outcome
	}

	inv.LinkedTransactionCreated = true
	inv.LinkedTransactionID = &remote.ID
	return MirrorOutcome{Status: MirrorLinked, TransactionID: remote.ID}
}

func (s *investmentService) mirrorFailed(inv *models.Investment, operation string, err error) MirrorOutcome {
	logger.Get().Warnw("investment mirror failed",
		"operation", operation,
		"investment_id", inv.ID,
		"user_id", inv.OwnerID,
		"error", err,
	)
	if s.audit != nil {
		s.audit.Log(inv.OwnerID, AuditActionMirrorFailed, "INVESTMENT", inv.ID, "", map[string]interface{}{
			"operation": operation,
			"reason":    err.Error(),
		})
	}
	return MirrorOutcome{Status: MirrorFailed, Reason: err.Error()}
}

func normalizeInvestmentType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

func validateCapital(amount decimal.Decimal) error {
	if amount.IsNegative() || !amount.Equal(amount.Round(2)) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "capital must not be negative and have at most two decimal places")
	}
	return nil
}
