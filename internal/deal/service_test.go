package deal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/activity"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/apperrors"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/catalog"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/locks"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/notification"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/realtime"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	agentA = uint(1)
	agentB = uint(2)
	agentC = uint(3) // never a participant
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification.Notification
}

func (f *fakeNotifier) Dispatch(_ context.Context, n notification.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Deal{}, &models.Document{}, &models.ActivityEntry{}, &models.ChatMessage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testCatalog() catalog.Catalog {
	return &catalog.Static{
		Properties: map[uint]catalog.PropertyInfo{
			10: {ID: 10, Title: "Marina apartment", ListingAgentID: agentA, Marketplace: false},
			11: {ID: 11, Title: "Palm villa", ListingAgentID: agentB, Marketplace: true},
			12: {ID: 12, Title: "Own marketplace listing", ListingAgentID: agentA, Marketplace: true},
		},
		Projects: map[uint]catalog.ProjectInfo{
			20: {ID: 20, Title: "Creek Towers", DeveloperID: 500},
		},
	}
}

func newTestService(t *testing.T) (*Service, *realtime.Hub, *fakeNotifier) {
	t.Helper()
	db := newTestDB(t)
	hub := realtime.NewHub()
	notifier := &fakeNotifier{}
	blobs, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	act := activity.NewService(db, hub)
	svc := NewService(db, act, hub, notifier, testCatalog(), blobs, locks.NewKeyed())
	return svc, hub, notifier
}

func uptr(v uint) *uint { return &v }

func activityCount(t *testing.T, db *gorm.DB, dealID uint, kind string) int64 {
	t.Helper()
	var n int64
	q := db.Model(&models.ActivityEntry{}).Where("deal_id = ?", dealID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count activities: %v", err)
	}
	return n
}

func TestCreateOwnProperty(t *testing.T) {
	svc, _, _ := newTestService(t)
	d, err := svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(10)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.Status != models.StatusDraft {
		t.Errorf("status = %q, want Draft", d.Status)
	}
	if d.DealType != models.DealTypeOwnProperty {
		t.Errorf("dealType = %q, want OwnProperty", d.DealType)
	}
	if d.CoAgentID != nil {
		t.Errorf("coAgentId should be nil")
	}
	if got := activityCount(t, svc.DB, d.ID, ""); got != 1 {
		t.Errorf("activity entries = %d, want 1 (create)", got)
	}
}

func TestCreateRequiresExactlyOneReference(t *testing.T) {
	svc, _, _ := newTestService(t)
	var ve *apperrors.ValidationError

	_, err := svc.Create(context.Background(), agentA, CreateParams{})
	if !errors.As(err, &ve) {
		t.Fatalf("neither ref: got %v, want ValidationError", err)
	}
	_, err = svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(10), ProjectID: uptr(20)})
	if !errors.As(err, &ve) {
		t.Fatalf("both refs: got %v, want ValidationError", err)
	}
}

func TestCreateCollaborationInvariant(t *testing.T) {
	svc, _, _ := newTestService(t)

	// Explicit co-agent.
	d, err := svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(10), CoAgentID: uptr(agentB)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.DealType != models.DealTypeCollaboration || d.CoAgentID == nil || *d.CoAgentID != agentB {
		t.Errorf("explicit co-agent: type=%q coAgent=%v", d.DealType, d.CoAgentID)
	}

	// Marketplace property of another agent implies that agent.
	d, err = svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(11)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.DealType != models.DealTypeCollaboration || d.CoAgentID == nil || *d.CoAgentID != agentB {
		t.Errorf("marketplace: type=%q coAgent=%v", d.DealType, d.CoAgentID)
	}
	if d.Provenance["source"] != "marketplace" {
		t.Errorf("provenance source = %v", d.Provenance["source"])
	}

	// Own marketplace listing stays OwnProperty.
	d, err = svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(12)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.DealType != models.DealTypeOwnProperty || d.CoAgentID != nil {
		t.Errorf("own marketplace listing: type=%q coAgent=%v", d.DealType, d.CoAgentID)
	}

	// Co-agent equal to owner is rejected.
	var ve *apperrors.ValidationError
	if _, err := svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(10), CoAgentID: uptr(agentA)}); !errors.As(err, &ve) {
		t.Errorf("self co-agent: got %v, want ValidationError", err)
	}
}

func TestCreateOffPlanProject(t *testing.T) {
	svc, _, _ := newTestService(t)
	d, err := svc.Create(context.Background(), agentA, CreateParams{ProjectID: uptr(20)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.DealType != models.DealTypeOffPlan {
		t.Errorf("dealType = %q, want OffPlanProject", d.DealType)
	}
	if d.Provenance["source"] != "project" {
		t.Errorf("provenance source = %v", d.Provenance["source"])
	}
}

func TestTransitionHappyPathAndAudit(t *testing.T) {
	svc, _, _ := newTestService(t)
	d, _ := svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(10)})

	path := []string{models.StatusInProgress, models.StatusDocsSent, models.StatusSigned, models.StatusClosed}
	for _, next := range path {
		if _, err := svc.Transition(context.Background(), d.ID, agentA, next); err != nil {
			t.Fatalf("Transition to %s: %v", next, err)
		}
	}
	got, _ := svc.Repository.FindByID(svc.DB, d.ID)
	if got.Status != models.StatusClosed {
		t.Fatalf("final status = %q", got.Status)
	}
	if n := activityCount(t, svc.DB, d.ID, models.ActivityStatusChange); n != int64(len(path)) {
		t.Errorf("status_change entries = %d, want %d", n, len(path))
	}
}

func TestTransitionRejectsSkippingDocsSent(t *testing.T) {
	svc, _, _ := newTestService(t)
	d, _ := svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(10)})
	if _, err := svc.Transition(context.Background(), d.ID, agentA, models.StatusInProgress); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	_, err := svc.Transition(context.Background(), d.ID, agentA, models.StatusSigned)
	var te *apperrors.InvalidTransitionError
	if !errors.As(err, &te) {
		t.Fatalf("got %v, want InvalidTransitionError", err)
	}
	if te.From != models.StatusInProgress || te.To != models.StatusSigned {
		t.Errorf("error edge = %s -> %s", te.From, te.To)
	}
	// The failed attempt must leave no trace.
	if n := activityCount(t, svc.DB, d.ID, models.ActivityStatusChange); n != 1 {
		t.Errorf("status_change entries = %d, want 1", n)
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	d, _ := svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(10)})
	var ve *apperrors.ValidationError
	if _, err := svc.Transition(context.Background(), d.ID, agentA, "Negotiating"); !errors.As(err, &ve) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}

func TestTransitionByStrangerHasNoSideEffects(t *testing.T) {
	svc, hub, notifier := newTestService(t)
	d, _ := svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(10)})

	sub := hub.Subscribe(context.Background(), d.ID)
	defer sub.Close()

	_, err := svc.Transition(context.Background(), d.ID, agentC, models.StatusInProgress)
	var pe *apperrors.PermissionError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want PermissionError", err)
	}
	if n := activityCount(t, svc.DB, d.ID, models.ActivityStatusChange); n != 0 {
		t.Errorf("status_change entries = %d, want 0", n)
	}
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected publish: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
	if notifier.count() != 0 {
		t.Errorf("notifications sent = %d, want 0", notifier.count())
	}
}

func TestTransitionNotifiesCoAgent(t *testing.T) {
	svc, _, notifier := newTestService(t)
	d, _ := svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(10), CoAgentID: uptr(agentB)})

	if _, err := svc.Transition(context.Background(), d.ID, agentA, models.StatusInProgress); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.sent))
	}
	n := notifier.sent[0]
	if n.Kind != notification.KindStatusChange || n.RecipientID != agentB {
		t.Errorf("notification = %+v", n)
	}
}

func TestUpdatePermissions(t *testing.T) {
	svc, _, _ := newTestService(t)
	d, _ := svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(10), CoAgentID: uptr(agentB)})

	value := 1_500_000.0
	split := "50/50"
	notes := "viewing friday"

	// Co-agent cannot touch financial terms.
	var pe *apperrors.PermissionError
	if _, err := svc.Update(d.ID, agentB, UpdateParams{DealValue: &value}); !errors.As(err, &pe) {
		t.Fatalf("co-agent deal value: got %v, want PermissionError", err)
	}
	if _, err := svc.Update(d.ID, agentB, UpdateParams{CommissionSplit: &split}); !errors.As(err, &pe) {
		t.Fatalf("co-agent commission: got %v, want PermissionError", err)
	}

	// Co-agent may edit the shared notes.
	if _, err := svc.Update(d.ID, agentB, UpdateParams{Notes: &notes}); err != nil {
		t.Fatalf("co-agent notes: %v", err)
	}

	// Owner may edit everything.
	got, err := svc.Update(d.ID, agentA, UpdateParams{DealValue: &value, CommissionSplit: &split})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if got.DealValue == nil || *got.DealValue != value || got.CommissionSplit != split || got.Notes != notes {
		t.Errorf("patch not applied: %+v", got)
	}

	// A stranger gets PermissionError.
	if _, err := svc.Update(d.ID, agentC, UpdateParams{Notes: &notes}); !errors.As(err, &pe) {
		t.Fatalf("stranger: got %v, want PermissionError", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	svc, hub, _ := newTestService(t)
	d, _ := svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(10), CoAgentID: uptr(agentB)})

	// Seed the three sub-stores.
	svc.DB.Create(&models.ChatMessage{DealID: d.ID, SenderID: agentA, Body: "hi"})
	svc.DB.Create(&models.Document{DealID: d.ID, Name: "mou.pdf", UploadedBy: agentA, StoragePath: "deals/x/y.pdf"})
	// (an ActivityEntry already exists from Create)

	sub := hub.Subscribe(context.Background(), d.ID)

	// Only the owner may delete.
	var pe *apperrors.PermissionError
	if err := svc.Delete(d.ID, agentB); !errors.As(err, &pe) {
		t.Fatalf("co-agent delete: got %v, want PermissionError", err)
	}
	if err := svc.Delete(d.ID, agentA); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	if _, err := svc.Get(d.ID, agentA); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Get after delete: %v, want ErrNotFound", err)
	}
	for _, q := range []struct {
		name  string
		model interface{}
	}{
		{"messages", &models.ChatMessage{}},
		{"activities", &models.ActivityEntry{}},
		{"documents", &models.Document{}},
	} {
		var n int64
		svc.DB.Unscoped().Model(q.model).Where("deal_id = ?", d.ID).Count(&n)
		if n != 0 {
			t.Errorf("orphaned %s: %d rows", q.name, n)
		}
	}

	// Open subscriptions were closed.
	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("expected closed subscription")
		}
	case <-time.After(time.Second):
		t.Error("subscription not closed")
	}
}

func TestListByAgentIncludesCoAgentDeals(t *testing.T) {
	svc, _, _ := newTestService(t)
	own, _ := svc.Create(context.Background(), agentA, CreateParams{PropertyID: uptr(10)})
	collab, _ := svc.Create(context.Background(), agentB, CreateParams{PropertyID: uptr(10), CoAgentID: uptr(agentA)})

	list, err := svc.List(agentA)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	ids := map[uint]bool{}
	for _, d := range list {
		ids[d.ID] = true
	}
	if !ids[own.ID] || !ids[collab.ID] {
		t.Errorf("list = %v, want both %d and %d", ids, own.ID, collab.ID)
	}

	other, _ := svc.List(agentC)
	if len(other) != 0 {
		t.Errorf("stranger sees %d deals", len(other))
	}
}
