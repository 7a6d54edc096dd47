package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/domain"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/store"
	"github.com/mykolasolodukha/vilnyypay-bot/pkg/monobank"
)

// stubRepo is an in-memory Repository for app tests. Methods not overridden
// panic through the embedded nil interface, which keeps tests honest about
// what they touch.
type stubRepo struct {
	store.Repository

	mu sync.Mutex

	account        *domain.Account
	findAccountErr error

	statements     map[string]*domain.Statement
	ingestionOrder []string

	paychecks map[uuid.UUID]*domain.Paycheck
	attached  map[string]uuid.UUID

	groupPayments  map[uuid.UUID]*domain.GroupPayment
	groups         map[int64]*domain.Group
	members        map[int64][]domain.User
	payoutAccounts map[int64]*domain.Account

	findPaycheckErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		statements:     make(map[string]*domain.Statement),
		paychecks:      make(map[uuid.UUID]*domain.Paycheck),
		attached:       make(map[string]uuid.UUID),
		groupPayments:  make(map[uuid.UUID]*domain.GroupPayment),
		groups:         make(map[int64]*domain.Group),
		members:        make(map[int64][]domain.User),
		payoutAccounts: make(map[int64]*domain.Account),
	}
}

func (r *stubRepo) FindPollingAccount(ctx context.Context) (*domain.Account, error) {
	if r.findAccountErr != nil {
		return nil, r.findAccountErr
	}
	if r.account == nil {
		return nil, store.ErrAccountNotFound
	}
	return r.account, nil
}

func (r *stubRepo) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	if r.account != nil && r.account.ID == accountID {
		return r.account, nil
	}
	for _, a := range r.payoutAccounts {
		if a.ID == accountID {
			return a, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (r *stubRepo) FindPayoutAccountForUser(ctx context.Context, userID int64) (*domain.Account, error) {
	account, ok := r.payoutAccounts[userID]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return account, nil
}

func (r *stubRepo) CreateStatement(ctx context.Context, st *domain.Statement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.statements[st.ID]; exists {
		return store.ErrDuplicateStatement
	}
	copied := *st
	r.statements[st.ID] = &copied
	r.ingestionOrder = append(r.ingestionOrder, st.ID)
	return nil
}

func (r *stubRepo) seedStatement(st *domain.Statement) {
	r.statements[st.ID] = st
}

func (r *stubRepo) FindOldestStatement(ctx context.Context, accountID string) (*domain.Statement, error) {
	return r.findEdgeStatement(accountID, true)
}

func (r *stubRepo) FindNewestStatement(ctx context.Context, accountID string) (*domain.Statement, error) {
	return r.findEdgeStatement(accountID, false)
}

func (r *stubRepo) findEdgeStatement(accountID string, oldest bool) (*domain.Statement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var edge *domain.Statement
	for _, st := range r.statements {
		if st.AccountID != accountID {
			continue
		}
		if edge == nil || (oldest && st.Time.Before(edge.Time)) || (!oldest && st.Time.After(edge.Time)) {
			edge = st
		}
	}
	if edge == nil {
		return nil, store.ErrStatementNotFound
	}
	return edge, nil
}

func (r *stubRepo) AttachStatementToPaycheck(ctx context.Context, statementID string, paycheckID uuid.UUID) error {
	r.attached[statementID] = paycheckID
	return nil
}

func (r *stubRepo) CreatePaycheck(ctx context.Context, p *domain.Paycheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.paychecks {
		if existing.GroupPaymentID != nil && p.GroupPaymentID != nil &&
			*existing.GroupPaymentID == *p.GroupPaymentID && existing.ForUserID == p.ForUserID {
			return store.ErrDuplicatePaycheck
		}
	}
	copied := *p
	r.paychecks[p.ID] = &copied
	return nil
}

func (r *stubRepo) FindPaycheckByID(ctx context.Context, id uuid.UUID) (*domain.Paycheck, error) {
	if r.findPaycheckErr != nil {
		return nil, r.findPaycheckErr
	}
	p, ok := r.paychecks[id]
	if !ok {
		return nil, store.ErrPaycheckNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *stubRepo) PaycheckExists(ctx context.Context, groupPaymentID uuid.UUID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.paychecks {
		if p.GroupPaymentID != nil && *p.GroupPaymentID == groupPaymentID && p.ForUserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) MarkPaycheckPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.paychecks[id]
	if !ok {
		return false, nil
	}
	if p.IsPaid {
		return false, nil
	}
	p.IsPaid = true
	return true, nil
}

func (r *stubRepo) ListUnpaidPaychecksDueBefore(ctx context.Context, cutoff time.Time) ([]domain.Paycheck, error) {
	var out []domain.Paycheck
	for _, p := range r.paychecks {
		if p.IsPaid || p.GroupPaymentID == nil {
			continue
		}
		gp, ok := r.groupPayments[*p.GroupPaymentID]
		if !ok || !gp.DueDate.Before(cutoff) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubRepo) CreateGroupPayment(ctx context.Context, gp *domain.GroupPayment) error {
	copied := *gp
	r.groupPayments[gp.ID] = &copied
	return nil
}

func (r *stubRepo) FindGroupPaymentByID(ctx context.Context, id uuid.UUID) (*domain.GroupPayment, error) {
	gp, ok := r.groupPayments[id]
	if !ok {
		return nil, store.ErrGroupPaymentNotFound
	}
	return gp, nil
}

func (r *stubRepo) FindGroupByID(ctx context.Context, groupID int64) (*domain.Group, error) {
	g, ok := r.groups[groupID]
	if !ok {
		return nil, store.ErrGroupNotFound
	}
	return g, nil
}

func (r *stubRepo) ListGroupMembers(ctx context.Context, groupID int64) ([]domain.User, error) {
	return r.members[groupID], nil
}

// stubNotifier records published events and can fail selectively.
type stubNotifier struct {
	mu        sync.Mutex
	created   []domain.PaycheckEvent
	paid      []domain.PaycheckEvent
	reminders []domain.PaycheckEvent

	failCreatedForUser int64
	failErr            error
}

func (n *stubNotifier) PaycheckCreated(ctx context.Context, event domain.PaycheckEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failErr != nil && event.UserID == n.failCreatedForUser {
		return n.failErr
	}
	n.created = append(n.created, event)
	return nil
}

func (n *stubNotifier) PaycheckPaid(ctx context.Context, event domain.PaycheckEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid = append(n.paid, event)
	return nil
}

func (n *stubNotifier) PaycheckDueReminder(ctx context.Context, event domain.PaycheckEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminders = append(n.reminders, event)
	return nil
}

// window records one statement request made against the stub bank.
type window struct {
	from, to time.Time
}

// stubBank replays a fixed sequence of provider pages.
type stubBank struct {
	pages   [][]monobank.Statement
	err     error
	windows []window
}

func (b *stubBank) ListStatements(ctx context.Context, token, accountID string, from, to time.Time) ([]monobank.Statement, error) {
	b.windows = append(b.windows, window{from: from, to: to})
	if b.err != nil {
		return nil, b.err
	}
	call := len(b.windows) - 1
	if call >= len(b.pages) {
		return nil, nil
	}
	return b.pages[call], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo *stubRepo, bank StatementSource, notifier *stubNotifier) *Service {
	if notifier == nil {
		notifier = &stubNotifier{}
	}
	return NewService(repo, bank, notifier, NewLocalRateLimiter(0), testLogger(), Options{
		MonitorSleepMin: time.Millisecond,
		MonitorSleepMax: 2 * time.Millisecond,
	})
}
