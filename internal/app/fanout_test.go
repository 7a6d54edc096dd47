package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/domain"
)

// seedGroup registers a group with the given members, each holding a payout
// account.
func seedGroup(repo *stubRepo, groupID int64, name string, memberIDs ...int64) {
	repo.groups[groupID] = &domain.Group{ID: groupID, Name: name}
	for _, userID := range memberIDs {
		repo.members[groupID] = append(repo.members[groupID], domain.User{ID: userID, IsActive: true})
		repo.payoutAccounts[userID] = &domain.Account{
			ID:     "acc-" + uuid.NewString()[:8],
			Name:   "FOP Test",
			IBAN:   "UA213223130000026007233566001",
			EDRPOU: "1234567890",
		}
	}
}

func TestCreateGroupPayment_IssuesPaycheckPerMember(t *testing.T) {
	repo := newStubRepo()
	seedGroup(repo, 100, "Flatmates", 1, 2, 3)
	notifier := &stubNotifier{}
	service := newTestService(repo, &stubBank{}, notifier)

	gp := &domain.GroupPayment{
		GroupID: 100,
		Amount:  30000,
		Comment: "Rent",
		DueDate: time.Now().Add(72 * time.Hour),
	}
	result, err := service.CreateGroupPayment(context.Background(), gp)
	if err != nil {
		t.Fatalf("CreateGroupPayment returned error: %v", err)
	}
	if result.Issued != 3 || result.Skipped != 0 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(repo.paychecks) != 3 {
		t.Fatalf("expected 3 paychecks, got %d", len(repo.paychecks))
	}
	if len(notifier.created) != 3 {
		t.Fatalf("expected 3 created notifications, got %d", len(notifier.created))
	}

	for _, p := range repo.paychecks {
		if p.GroupPaymentID == nil || *p.GroupPaymentID != gp.ID {
			t.Fatalf("paycheck %s not linked to group payment", p.ID)
		}
		if p.Amount != 30000 || p.CurrencySymbol != "UAH" || p.CurrencyCode != 980 {
			t.Fatalf("unexpected paycheck fields: %+v", p)
		}
	}
	for _, event := range notifier.created {
		if event.PayURL == "" {
			t.Fatalf("created event for user %d carries no payment link", event.UserID)
		}
		if !strings.HasPrefix(event.PayURL, "https://bank.gov.ua/qr/") {
			t.Fatalf("unexpected payment link %q", event.PayURL)
		}
		if event.DueDate == nil || !event.DueDate.Equal(gp.DueDate) {
			t.Fatalf("created event for user %d carries wrong due date", event.UserID)
		}
	}
}

func TestSendGroupPayment_RerunSkipsExistingPaychecks(t *testing.T) {
	repo := newStubRepo()
	seedGroup(repo, 100, "Flatmates", 1, 2)
	notifier := &stubNotifier{}
	service := newTestService(repo, &stubBank{}, notifier)

	gp := &domain.GroupPayment{GroupID: 100, Amount: 5000, Comment: "Internet"}
	if _, err := service.CreateGroupPayment(context.Background(), gp); err != nil {
		t.Fatalf("initial fan-out failed: %v", err)
	}

	result, err := service.SendGroupPayment(context.Background(), gp.ID)
	if err != nil {
		t.Fatalf("re-run returned error: %v", err)
	}
	if result.Issued != 0 || result.Skipped != 2 || result.Failed != 0 {
		t.Fatalf("expected a full skip on re-run, got %+v", result)
	}
	if len(repo.paychecks) != 2 {
		t.Fatalf("re-run must not create paychecks, got %d", len(repo.paychecks))
	}
	if len(notifier.created) != 2 {
		t.Fatalf("re-run must not re-notify, got %d created events", len(notifier.created))
	}
}

func TestSendGroupPayment_MemberWithoutPayoutAccountIsIsolated(t *testing.T) {
	repo := newStubRepo()
	seedGroup(repo, 100, "Flatmates", 1, 2)
	// Member 3 has no payout account registered.
	repo.members[100] = append(repo.members[100], domain.User{ID: 3, IsActive: true})
	notifier := &stubNotifier{}
	service := newTestService(repo, &stubBank{}, notifier)

	gp := &domain.GroupPayment{GroupID: 100, Amount: 5000, Comment: "Utilities"}
	result, err := service.CreateGroupPayment(context.Background(), gp)
	if err != nil {
		t.Fatalf("CreateGroupPayment returned error: %v", err)
	}
	if result.Issued != 2 || result.Failed != 1 {
		t.Fatalf("expected 2 issued and 1 failed, got %+v", result)
	}
	if len(repo.paychecks) != 2 {
		t.Fatalf("expected paychecks only for covered members, got %d", len(repo.paychecks))
	}
}

func TestSendGroupPayment_NotifierFailureDoesNotUndoPaycheck(t *testing.T) {
	repo := newStubRepo()
	seedGroup(repo, 100, "Flatmates", 1, 2)
	notifier := &stubNotifier{failCreatedForUser: 1, failErr: errors.New("broker down")}
	service := newTestService(repo, &stubBank{}, notifier)

	gp := &domain.GroupPayment{GroupID: 100, Amount: 5000, Comment: "Cleaning"}
	result, err := service.CreateGroupPayment(context.Background(), gp)
	if err != nil {
		t.Fatalf("CreateGroupPayment returned error: %v", err)
	}
	if result.Issued != 2 || result.Failed != 0 {
		t.Fatalf("a notification failure must not count as a failed paycheck: %+v", result)
	}
	if len(repo.paychecks) != 2 {
		t.Fatalf("expected both paychecks persisted, got %d", len(repo.paychecks))
	}
	if len(notifier.created) != 1 {
		t.Fatalf("expected one delivered notification, got %d", len(notifier.created))
	}
}

func TestCreateGroupPayment_UnknownGroupFails(t *testing.T) {
	repo := newStubRepo()
	service := newTestService(repo, &stubBank{}, &stubNotifier{})

	gp := &domain.GroupPayment{GroupID: 999, Amount: 5000}
	if _, err := service.CreateGroupPayment(context.Background(), gp); err == nil {
		t.Fatal("expected an error for an unknown group")
	}
	if len(repo.groupPayments) != 0 {
		t.Fatal("no group payment row may exist for an unknown group")
	}
}

func TestSendGroupPayment_UnknownGroupPaymentFails(t *testing.T) {
	repo := newStubRepo()
	service := newTestService(repo, &stubBank{}, &stubNotifier{})

	if _, err := service.SendGroupPayment(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected an error for an unknown group payment")
	}
}
