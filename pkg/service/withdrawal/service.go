// Package withdrawal orchestrates the withdrawal lifecycle: creation with
// limit verification, and guarded event application with ledger side
// effects. Every transition runs as one atomic unit of work — load the row
// for update, evaluate the guard, mutate, post ledger operations, commit —
// and post-commit actions (dispatch, lifecycle publication, auto-approval)
// only fire once the transaction is durable.
package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/events"
	"github.com/amirasaad/exchange/pkg/domain/ledger"
	"github.com/amirasaad/exchange/pkg/domain/member"
	"github.com/amirasaad/exchange/pkg/domain/withdrawal"
	"github.com/amirasaad/exchange/pkg/eventbus"
	"github.com/amirasaad/exchange/pkg/repository"
	ledgersvc "github.com/amirasaad/exchange/pkg/service/ledger"
	limitsvc "github.com/amirasaad/exchange/pkg/service/limits"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dispatcher enqueues fire-and-forget broadcast jobs for crypto
// withdrawals entering processing.
type Dispatcher interface {
	Enqueue(ctx context.Context, withdrawalID uuid.UUID) error
}

// Deps collects the service's collaborators.
type Deps struct {
	UoW         repository.UnitOfWork
	Engine      *ledgersvc.Engine
	Resolver    *limitsvc.Resolver
	Bus         eventbus.EventBus
	Dispatcher  Dispatcher
	AutoApprove bool
	Logger      *slog.Logger
}

// Service is the withdrawal state machine's single entry point.
type Service struct {
	uow         repository.UnitOfWork
	machine     *withdrawal.Machine
	engine      *ledgersvc.Engine
	resolver    *limitsvc.Resolver
	bus         eventbus.EventBus
	dispatcher  Dispatcher
	autoApprove bool
	logger      *slog.Logger
}

// NewService builds the service and validates the transition table.
func NewService(deps Deps) (*Service, error) {
	machine, err := withdrawal.NewMachine()
	if err != nil {
		return nil, fmt.Errorf("build withdrawal state machine: %w", err)
	}
	return &Service{
		uow:         deps.UoW,
		machine:     machine,
		engine:      deps.Engine,
		resolver:    deps.Resolver,
		bus:         deps.Bus,
		dispatcher:  deps.Dispatcher,
		autoApprove: deps.AutoApprove,
		logger:      deps.Logger,
	}, nil
}

// CreateParams carries a creation request.
type CreateParams struct {
	MemberID      uuid.UUID
	Currency      currency.Code
	BeneficiaryID *uuid.UUID
	RID           string
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	Note          string
}

// Create validates the request, verifies withdraw limits and persists the
// withdrawal in state "prepared". No funds move until accept.
func (s *Service) Create(ctx context.Context, p CreateParams) (*withdrawal.Withdrawal, error) {
	logger := s.logger.With("member_id", p.MemberID, "currency", p.Currency)
	var (
		w *withdrawal.Withdrawal
		m *member.Member
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		var err error
		m, err = uow.Members().Get(ctx, p.MemberID)
		if err != nil {
			return err
		}
		cur, err := uow.Currencies().Get(ctx, p.Currency)
		if err != nil {
			return err
		}

		rid := p.RID
		if p.BeneficiaryID != nil {
			b, err := uow.Members().GetBeneficiary(ctx, *p.BeneficiaryID)
			if err != nil {
				return err
			}
			if !b.Active {
				return withdrawal.ErrBeneficiaryInactive
			}
			if rid == "" {
				rid = b.RID
			}
		}

		transferType := withdrawal.TransferFiat
		if cur.IsCoin() {
			transferType = withdrawal.TransferCrypto
		}
		w, err = withdrawal.New().
			WithMemberID(p.MemberID).
			WithCurrency(p.Currency).
			WithBeneficiaryID(p.BeneficiaryID).
			WithRID(rid).
			WithAmount(p.Amount).
			WithFee(p.Fee).
			WithTransferType(transferType).
			WithNote(p.Note).
			Build()
		if err != nil {
			return err
		}
		if w.Sum.LessThan(cur.MinWithdrawAmount) {
			return withdrawal.ErrBelowMinimum
		}
		if err := s.resolver.Verify(ctx, uow, m, cur, w.Sum, w.CreatedAt); err != nil {
			return err
		}
		return uow.Withdrawals().Create(ctx, w)
	})
	if err != nil {
		logger.Warn("withdrawal creation rejected", "error", err)
		return nil, err
	}
	logger.Info("withdrawal created", "withdrawal_id", w.ID, "tid", w.TID, "sum", w.Sum)
	s.publish(ctx, events.TypeWithdrawalCreated, w, m.UID)
	return w, nil
}

// Command applies one lifecycle event. TxID and BlockNumber, when present,
// are recorded before the guard is evaluated so that dispatch/load/success
// can observe them. ErrorClass and ErrorMessage feed the err event's
// append-only log.
type Command struct {
	Event        withdrawal.Event
	TxID         string
	BlockNumber  *int64
	ErrorClass   string
	ErrorMessage string
}

// Apply performs one guarded transition atomically and returns the
// withdrawal in its new state. An event whose source states do not include
// the current state fails with withdrawal.ErrInvalidTransition and mutates
// nothing.
func (s *Service) Apply(ctx context.Context, id uuid.UUID, cmd Command) (*withdrawal.Withdrawal, error) {
	logger := s.logger.With("withdrawal_id", id, "event", cmd.Event)
	var (
		w     *withdrawal.Withdrawal
		m     *member.Member
		prior withdrawal.State
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		var err error
		w, err = uow.Withdrawals().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		m, err = uow.Members().Get(ctx, w.MemberID)
		if err != nil {
			return err
		}
		if err := s.recordTxID(ctx, uow, w, cmd); err != nil {
			return err
		}

		next, err := s.machine.Next(w, cmd.Event)
		if err != nil {
			return err
		}
		prior = w.State
		w.State = next
		w.UpdatedAt = time.Now().UTC()
		if w.IsCompleted() {
			w.MarkCompleted(w.UpdatedAt)
		}

		if err := s.applySideEffects(ctx, uow, w, cmd, prior); err != nil {
			return err
		}
		return uow.Withdrawals().Update(ctx, w)
	})
	if err != nil {
		if errors.Is(err, withdrawal.ErrInvalidTransition) || errors.Is(err, withdrawal.ErrGuardRejected) {
			logger.Warn("withdrawal event rejected", "error", err)
		} else {
			logger.Error("withdrawal event failed", "error", err)
		}
		return nil, err
	}

	logger.Info("withdrawal transitioned", "from", prior, "to", w.State)
	s.publish(ctx, events.TypeWithdrawalUpdated, w, m.UID)
	s.afterCommit(ctx, w, cmd.Event)
	return w, nil
}

// Get returns a withdrawal by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*withdrawal.Withdrawal, error) {
	return s.uow.Withdrawals().Get(ctx, id)
}

func (s *Service) recordTxID(
	ctx context.Context,
	uow repository.UnitOfWork,
	w *withdrawal.Withdrawal,
	cmd Command,
) error {
	if cmd.TxID != "" && cmd.TxID != w.TxID {
		taken, err := uow.Withdrawals().TxIDExists(ctx, w.CurrencyID, cmd.TxID, w.ID)
		if err != nil {
			return err
		}
		if taken {
			return withdrawal.ErrTxIDTaken
		}
		w.TxID = cmd.TxID
	}
	if cmd.BlockNumber != nil {
		if *cmd.BlockNumber < 0 {
			return withdrawal.ErrInvalidBlockNumber
		}
		w.BlockNumber = cmd.BlockNumber
	}
	return nil
}

// applySideEffects posts the ledger movements belonging to the transition,
// inside the same transaction as the state change.
func (s *Service) applySideEffects(
	ctx context.Context,
	uow repository.UnitOfWork,
	w *withdrawal.Withdrawal,
	cmd Command,
	prior withdrawal.State,
) error {
	switch cmd.Event {
	case withdrawal.EventAccept:
		return s.engine.Transfer(ctx, uow, ledgersvc.TransferParams{
			Amount:    w.Sum,
			Currency:  w.CurrencyID,
			Reference: w.ID,
			Event:     string(cmd.Event),
			FromKind:  ledger.KindMain,
			ToKind:    ledger.KindLocked,
			MemberID:  w.MemberID,
		})
	case withdrawal.EventCancel:
		if prior == withdrawal.StatePrepared {
			return nil
		}
		return s.unlock(ctx, uow, w, cmd.Event)
	case withdrawal.EventReject, withdrawal.EventFail:
		return s.unlock(ctx, uow, w, cmd.Event)
	case withdrawal.EventSuccess:
		return s.settle(ctx, uow, w, cmd.Event)
	case withdrawal.EventErr:
		w.RecordError(cmd.ErrorClass, cmd.ErrorMessage)
		return nil
	}
	return nil
}

// unlock reverses the fund lock: locked back to main, in full.
func (s *Service) unlock(
	ctx context.Context,
	uow repository.UnitOfWork,
	w *withdrawal.Withdrawal,
	event withdrawal.Event,
) error {
	return s.engine.Transfer(ctx, uow, ledgersvc.TransferParams{
		Amount:    w.Sum,
		Currency:  w.CurrencyID,
		Reference: w.ID,
		Event:     string(event),
		FromKind:  ledger.KindLocked,
		ToKind:    ledger.KindMain,
		MemberID:  w.MemberID,
	})
}

// settle books the completed payout: the member's locked liability is
// extinguished in full, the fee lands on revenue and the paid-out net
// amount leaves the exchange's asset account.
func (s *Service) settle(
	ctx context.Context,
	uow repository.UnitOfWork,
	w *withdrawal.Withdrawal,
	event withdrawal.Event,
) error {
	if err := s.engine.Debit(ctx, uow, ledgersvc.DebitParams{
		Amount:    w.Sum,
		Currency:  w.CurrencyID,
		Reference: w.ID,
		Event:     string(event),
		Scope:     ledger.ScopeLiability,
		Kind:      ledger.KindLocked,
		MemberID:  &w.MemberID,
	}); err != nil {
		return err
	}
	if w.Fee.IsPositive() {
		if err := s.engine.Credit(ctx, uow, ledgersvc.CreditParams{
			Amount:    w.Fee,
			Currency:  w.CurrencyID,
			Reference: w.ID,
			Event:     string(event),
			Scope:     ledger.ScopeRevenue,
		}); err != nil {
			return err
		}
	}
	return s.engine.Debit(ctx, uow, ledgersvc.DebitParams{
		Amount:    w.Amount,
		Currency:  w.CurrencyID,
		Reference: w.ID,
		Event:     string(event),
		Scope:     ledger.ScopeAsset,
		Kind:      ledger.KindMain,
	})
}

// afterCommit runs the actions that must not block or roll back the
// accounting step: broadcast dispatch and auto-approval.
func (s *Service) afterCommit(ctx context.Context, w *withdrawal.Withdrawal, event withdrawal.Event) {
	switch event {
	case withdrawal.EventProcess:
		if w.IsCrypto() && s.dispatcher != nil {
			if err := s.dispatcher.Enqueue(ctx, w.ID); err != nil {
				// The job layer owns retries; the transition itself stands.
				s.logger.Error("broadcast dispatch enqueue failed",
					"withdrawal_id", w.ID, "error", err)
			}
		}
	case withdrawal.EventAccept:
		if s.autoApprove && w.IsCrypto() {
			if _, err := s.Apply(ctx, w.ID, Command{Event: withdrawal.EventProcess}); err != nil {
				s.logger.Error("auto-approval process failed",
					"withdrawal_id", w.ID, "error", err)
			}
		}
	}
}

func (s *Service) publish(ctx context.Context, kind string, w *withdrawal.Withdrawal, memberUID string) {
	evt := events.WithdrawalChanged{
		Kind:        kind,
		TID:         w.TID,
		MemberUID:   memberUID,
		RID:         w.RID,
		Currency:    w.CurrencyID.String(),
		Amount:      w.Amount,
		Fee:         w.Fee,
		State:       string(w.State),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		CompletedAt: w.CompletedAt,
		TxID:        w.TxID,
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		s.logger.Error("lifecycle event publish failed", "tid", w.TID, "error", err)
	}
}
