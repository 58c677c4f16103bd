// Package fixtures provides an in-memory UnitOfWork implementation for
// service-level tests. Do serializes callers on one mutex and snapshots the
// store before running the body, so a failed unit of work rolls back and
// concurrent units observe transaction-like isolation.
package fixtures

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/ledger"
	"github.com/amirasaad/exchange/pkg/domain/limits"
	"github.com/amirasaad/exchange/pkg/domain/member"
	"github.com/amirasaad/exchange/pkg/domain/withdrawal"
	"github.com/amirasaad/exchange/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type store struct {
	withdrawals   map[uuid.UUID]withdrawal.Withdrawal
	accounts      map[uuid.UUID]ledger.Account
	entries       []ledger.Entry
	limits        map[int64]limits.Limit
	nextLimitID   int64
	members       map[uuid.UUID]member.Member
	beneficiaries map[uuid.UUID]member.Beneficiary
	currencies    map[currency.Code]currency.Currency
}

func (s *store) clone() *store {
	c := &store{
		withdrawals:   make(map[uuid.UUID]withdrawal.Withdrawal, len(s.withdrawals)),
		accounts:      make(map[uuid.UUID]ledger.Account, len(s.accounts)),
		entries:       append([]ledger.Entry(nil), s.entries...),
		limits:        make(map[int64]limits.Limit, len(s.limits)),
		nextLimitID:   s.nextLimitID,
		members:       make(map[uuid.UUID]member.Member, len(s.members)),
		beneficiaries: make(map[uuid.UUID]member.Beneficiary, len(s.beneficiaries)),
		currencies:    make(map[currency.Code]currency.Currency, len(s.currencies)),
	}
	for k, v := range s.withdrawals {
		v.ErrorLog = append([]withdrawal.ErrorEntry(nil), v.ErrorLog...)
		c.withdrawals[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.limits {
		c.limits[k] = v
	}
	for k, v := range s.members {
		c.members[k] = v
	}
	for k, v := range s.beneficiaries {
		c.beneficiaries[k] = v
	}
	for k, v := range s.currencies {
		c.currencies[k] = v
	}
	return c
}

// MemoryUoW is the in-memory repository.UnitOfWork.
type MemoryUoW struct {
	mu sync.Mutex
	st *store
}

// NewMemoryUoW returns an empty store. Seed it with the Seed* helpers.
func NewMemoryUoW() *MemoryUoW {
	return &MemoryUoW{st: &store{
		withdrawals:   map[uuid.UUID]withdrawal.Withdrawal{},
		accounts:      map[uuid.UUID]ledger.Account{},
		limits:        map[int64]limits.Limit{},
		nextLimitID:   1,
		members:       map[uuid.UUID]member.Member{},
		beneficiaries: map[uuid.UUID]member.Beneficiary{},
		currencies:    map[currency.Code]currency.Currency{},
	}}
}

// Do runs fn against a bound view of the store. On error the store is
// restored to its pre-fn state.
func (u *MemoryUoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	backup := u.st.clone()
	if err := fn(&boundUoW{st: u.st}); err != nil {
		u.st = backup
		return err
	}
	return nil
}

// Withdrawals implements repository.UnitOfWork outside a transaction.
func (u *MemoryUoW) Withdrawals() repository.WithdrawalRepository {
	return &withdrawalRepo{mu: &u.mu, uow: u}
}

func (u *MemoryUoW) Ledger() repository.LedgerRepository {
	return &ledgerRepo{mu: &u.mu, uow: u}
}

func (u *MemoryUoW) Limits() repository.LimitRepository {
	return &limitRepo{mu: &u.mu, uow: u}
}

func (u *MemoryUoW) Members() repository.MemberRepository {
	return &memberRepo{mu: &u.mu, uow: u}
}

func (u *MemoryUoW) Currencies() repository.CurrencyRepository {
	return &currencyRepo{mu: &u.mu, uow: u}
}

// boundUoW is handed to the Do body: its repositories touch the live store
// without re-locking, mirroring how a gorm transaction hands out a bound *DB.
type boundUoW struct {
	st *store
}

func (b *boundUoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return fn(b)
}

func (b *boundUoW) Withdrawals() repository.WithdrawalRepository { return &withdrawalRepo{st: b.st} }
func (b *boundUoW) Ledger() repository.LedgerRepository         { return &ledgerRepo{st: b.st} }
func (b *boundUoW) Limits() repository.LimitRepository          { return &limitRepo{st: b.st} }
func (b *boundUoW) Members() repository.MemberRepository        { return &memberRepo{st: b.st} }
func (b *boundUoW) Currencies() repository.CurrencyRepository   { return &currencyRepo{st: b.st} }

// Seed helpers for arranging test state.

func (u *MemoryUoW) SeedMember(m member.Member) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.st.members[m.ID] = m
}

func (u *MemoryUoW) SeedBeneficiary(b member.Beneficiary) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.st.beneficiaries[b.ID] = b
}

func (u *MemoryUoW) SeedCurrency(c currency.Currency) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.st.currencies[c.Code] = c
}

func (u *MemoryUoW) SeedLimit(l limits.Limit) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if l.ID == 0 {
		l.ID = u.st.nextLimitID
	}
	if l.ID >= u.st.nextLimitID {
		u.st.nextLimitID = l.ID + 1
	}
	u.st.limits[l.ID] = l
}

func (u *MemoryUoW) SeedWithdrawal(w withdrawal.Withdrawal) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.st.withdrawals[w.ID] = w
}

// SeedBalance credits a ledger account directly, creating it if needed.
func (u *MemoryUoW) SeedBalance(q repository.AccountQuery, balance decimal.Decimal) {
	u.mu.Lock()
	defer u.mu.Unlock()
	r := &ledgerRepo{st: u.st}
	acc, _ := r.AccountForUpdate(context.Background(), q)
	acc.Balance = balance
	_ = r.UpdateBalance(context.Background(), acc.ID, balance)
}

// Balance reads an account balance, zero if the account was never touched.
func (u *MemoryUoW) Balance(q repository.AccountQuery) decimal.Decimal {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, a := range u.st.accounts {
		if accountMatches(a, q) {
			return a.Balance
		}
	}
	return decimal.Zero
}

// Entries returns all recorded ledger entries for a reference.
func (u *MemoryUoW) Entries(referenceID uuid.UUID) []ledger.Entry {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []ledger.Entry
	for _, e := range u.st.entries {
		if e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	return out
}

func accountMatches(a ledger.Account, q repository.AccountQuery) bool {
	if a.Currency != q.Currency || a.Scope != q.Scope || a.Kind != q.Kind {
		return false
	}
	if q.MemberID == nil {
		return a.MemberID == nil
	}
	return a.MemberID != nil && *a.MemberID == *q.MemberID
}

// withdrawalRepo implements repository.WithdrawalRepository. When mu is set
// the repo is used outside Do and locks per call.
type withdrawalRepo struct {
	mu  *sync.Mutex
	uow *MemoryUoW
	st  *store
}

func (r *withdrawalRepo) view() (*store, func()) {
	if r.mu != nil {
		r.mu.Lock()
		return r.uow.st, r.mu.Unlock
	}
	return r.st, func() {}
}

func (r *withdrawalRepo) Create(ctx context.Context, w *withdrawal.Withdrawal) error {
	st, done := r.view()
	defer done()
	st.withdrawals[w.ID] = *w
	return nil
}

func (r *withdrawalRepo) Get(ctx context.Context, id uuid.UUID) (*withdrawal.Withdrawal, error) {
	st, done := r.view()
	defer done()
	w, ok := st.withdrawals[id]
	if !ok {
		return nil, withdrawal.ErrNotFound
	}
	w.ErrorLog = append([]withdrawal.ErrorEntry(nil), w.ErrorLog...)
	return &w, nil
}

func (r *withdrawalRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*withdrawal.Withdrawal, error) {
	return r.Get(ctx, id)
}

func (r *withdrawalRepo) Update(ctx context.Context, w *withdrawal.Withdrawal) error {
	st, done := r.view()
	defer done()
	if _, ok := st.withdrawals[w.ID]; !ok {
		return withdrawal.ErrNotFound
	}
	st.withdrawals[w.ID] = *w
	return nil
}

func (r *withdrawalRepo) SumByMemberSince(
	ctx context.Context,
	memberID uuid.UUID,
	states []withdrawal.State,
	since time.Time,
) (decimal.Decimal, error) {
	st, done := r.view()
	defer done()
	total := decimal.Zero
	for _, w := range st.withdrawals {
		if w.MemberID != memberID || w.CreatedAt.Before(since) {
			continue
		}
		for _, s := range states {
			if w.State == s {
				total = total.Add(w.Sum)
				break
			}
		}
	}
	return total, nil
}

func (r *withdrawalRepo) TxIDExists(
	ctx context.Context,
	code currency.Code,
	txid string,
	exclude uuid.UUID,
) (bool, error) {
	st, done := r.view()
	defer done()
	for _, w := range st.withdrawals {
		if w.ID != exclude && w.CurrencyID == code && w.TxID == txid {
			return true, nil
		}
	}
	return false, nil
}

type ledgerRepo struct {
	mu  *sync.Mutex
	uow *MemoryUoW
	st  *store
}

func (r *ledgerRepo) view() (*store, func()) {
	if r.mu != nil {
		r.mu.Lock()
		return r.uow.st, r.mu.Unlock
	}
	return r.st, func() {}
}

func (r *ledgerRepo) AccountForUpdate(ctx context.Context, q repository.AccountQuery) (*ledger.Account, error) {
	st, done := r.view()
	defer done()
	for _, a := range st.accounts {
		if accountMatches(a, q) {
			found := a
			return &found, nil
		}
	}
	a := ledger.Account{
		ID:       uuid.New(),
		MemberID: q.MemberID,
		Currency: q.Currency,
		Scope:    q.Scope,
		Kind:     q.Kind,
		Balance:  decimal.Zero,
	}
	st.accounts[a.ID] = a
	return &a, nil
}

func (r *ledgerRepo) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	st, done := r.view()
	defer done()
	a, ok := st.accounts[id]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	a.Balance = balance
	a.UpdatedAt = time.Now().UTC()
	st.accounts[id] = a
	return nil
}

func (r *ledgerRepo) CreateEntry(ctx context.Context, e *ledger.Entry) error {
	st, done := r.view()
	defer done()
	st.entries = append(st.entries, *e)
	return nil
}

func (r *ledgerRepo) EntryExists(ctx context.Context, referenceID uuid.UUID, event, code string) (bool, error) {
	st, done := r.view()
	defer done()
	for _, e := range st.entries {
		if e.ReferenceID == referenceID && e.Event == event && e.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *ledgerRepo) EntriesByReference(ctx context.Context, referenceID uuid.UUID) ([]*ledger.Entry, error) {
	st, done := r.view()
	defer done()
	var out []*ledger.Entry
	for i := range st.entries {
		if st.entries[i].ReferenceID == referenceID {
			e := st.entries[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

type limitRepo struct {
	mu  *sync.Mutex
	uow *MemoryUoW
	st  *store
}

func (r *limitRepo) view() (*store, func()) {
	if r.mu != nil {
		r.mu.Lock()
		return r.uow.st, r.mu.Unlock
	}
	return r.st, func() {}
}

func (r *limitRepo) Matching(
	ctx context.Context,
	kycLevel, group string,
	code currency.Code,
) ([]limits.Limit, error) {
	st, done := r.view()
	defer done()
	var out []limits.Limit
	for _, l := range st.limits {
		if l.Matches(kycLevel, group, code) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *limitRepo) Create(ctx context.Context, l *limits.Limit) error {
	st, done := r.view()
	defer done()
	for _, existing := range st.limits {
		if existing.CurrencyID == l.CurrencyID && existing.Group == l.Group && existing.KYCLevel == l.KYCLevel {
			return limits.ErrDuplicate
		}
	}
	l.ID = st.nextLimitID
	st.nextLimitID++
	st.limits[l.ID] = *l
	return nil
}

func (r *limitRepo) Update(ctx context.Context, l *limits.Limit) error {
	st, done := r.view()
	defer done()
	if _, ok := st.limits[l.ID]; !ok {
		return limits.ErrNotFound
	}
	st.limits[l.ID] = *l
	return nil
}

func (r *limitRepo) Delete(ctx context.Context, id int64) error {
	st, done := r.view()
	defer done()
	if _, ok := st.limits[id]; !ok {
		return limits.ErrNotFound
	}
	delete(st.limits, id)
	return nil
}

func (r *limitRepo) Get(ctx context.Context, id int64) (*limits.Limit, error) {
	st, done := r.view()
	defer done()
	l, ok := st.limits[id]
	if !ok {
		return nil, limits.ErrNotFound
	}
	return &l, nil
}

func (r *limitRepo) List(ctx context.Context) ([]limits.Limit, error) {
	st, done := r.view()
	defer done()
	out := make([]limits.Limit, 0, len(st.limits))
	for _, l := range st.limits {
		out = append(out, l)
	}
	return out, nil
}

type memberRepo struct {
	mu  *sync.Mutex
	uow *MemoryUoW
	st  *store
}

func (r *memberRepo) view() (*store, func()) {
	if r.mu != nil {
		r.mu.Lock()
		return r.uow.st, r.mu.Unlock
	}
	return r.st, func() {}
}

func (r *memberRepo) Get(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	st, done := r.view()
	defer done()
	m, ok := st.members[id]
	if !ok {
		return nil, member.ErrNotFound
	}
	return &m, nil
}

func (r *memberRepo) GetBeneficiary(ctx context.Context, id uuid.UUID) (*member.Beneficiary, error) {
	st, done := r.view()
	defer done()
	b, ok := st.beneficiaries[id]
	if !ok {
		return nil, member.ErrBeneficiaryNotFound
	}
	return &b, nil
}

type currencyRepo struct {
	mu  *sync.Mutex
	uow *MemoryUoW
	st  *store
}

func (r *currencyRepo) view() (*store, func()) {
	if r.mu != nil {
		r.mu.Lock()
		return r.uow.st, r.mu.Unlock
	}
	return r.st, func() {}
}

func (r *currencyRepo) Get(ctx context.Context, code currency.Code) (*currency.Currency, error) {
	st, done := r.view()
	defer done()
	c, ok := st.currencies[code]
	if !ok {
		return nil, currency.ErrNotFound
	}
	return &c, nil
}
