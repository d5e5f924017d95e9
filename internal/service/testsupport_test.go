package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tutorium-be/internal/config"
	"tutorium-be/internal/entity"
	"tutorium-be/internal/repository/contract"
	"tutorium-be/internal/repository/specification"
	"tutorium-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeStore is a shared in-memory database for service tests. The fake
// repositories interpret the same specifications the GORM implementations
// translate to SQL.
type fakeStore struct {
	lessons  map[uuid.UUID]*entity.Lesson
	roster   map[uuid.UUID]map[uuid.UUID]bool
	requests []*entity.CancellationRequest
	credits  []*entity.MakeupCredit
	invoices map[uuid.UUID]*entity.Invoice
	items    []*entity.InvoiceItem
	outbox   []*entity.OutboxMessage
	audit    []*entity.AuditEntry
	users    map[uuid.UUID]*entity.User
	seq      map[string]int64

	commits   int
	rollbacks int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lessons:  make(map[uuid.UUID]*entity.Lesson),
		roster:   make(map[uuid.UUID]map[uuid.UUID]bool),
		invoices: make(map[uuid.UUID]*entity.Invoice),
		users:    make(map[uuid.UUID]*entity.User),
		seq:      make(map[string]int64),
	}
}

func (s *fakeStore) addLesson(l *entity.Lesson) {
	s.lessons[l.Id] = l
	if s.roster[l.Id] == nil {
		s.roster[l.Id] = make(map[uuid.UUID]bool)
	}
}

func (s *fakeStore) enroll(lessonId, studentId uuid.UUID) {
	if s.roster[lessonId] == nil {
		s.roster[lessonId] = make(map[uuid.UUID]bool)
	}
	s.roster[lessonId][studentId] = true
}

func (s *fakeStore) outboxByType(typeCode string) []*entity.OutboxMessage {
	var out []*entity.OutboxMessage
	for _, m := range s.outbox {
		if m.TypeCode == typeCode {
			out = append(out, m)
		}
	}
	return out
}

type fakeFactory struct {
	store *fakeStore
}

func newFakeFactory(store *fakeStore) unitofwork.RepositoryFactory {
	return &fakeFactory{store: store}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *fakeStore
	inTx  bool
}

func (u *fakeUow) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.inTx = true
	return nil
}

func (u *fakeUow) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.inTx = false
	u.store.commits++
	return nil
}

func (u *fakeUow) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.inTx = false
	u.store.rollbacks++
	return nil
}

func (u *fakeUow) CancellationRepository() contract.CancellationRepository {
	return &fakeCancellationRepo{store: u.store}
}
func (u *fakeUow) MakeupCreditRepository() contract.MakeupCreditRepository {
	return &fakeCreditRepo{store: u.store}
}
func (u *fakeUow) LessonRepository() contract.LessonRepository {
	return &fakeLessonRepo{store: u.store}
}
func (u *fakeUow) InvoiceRepository() contract.InvoiceRepository {
	return &fakeInvoiceRepo{store: u.store}
}
func (u *fakeUow) SequenceRepository() contract.SequenceRepository {
	return &fakeSequenceRepo{store: u.store}
}
func (u *fakeUow) OutboxRepository() contract.OutboxRepository {
	return &fakeOutboxRepo{store: u.store}
}
func (u *fakeUow) AuditLogRepository() contract.AuditLogRepository {
	return &fakeAuditRepo{store: u.store}
}
func (u *fakeUow) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}

func sameValue(a, b interface{}) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// --- cancellation requests ---

type fakeCancellationRepo struct {
	store *fakeStore
}

func matchRequest(r *entity.CancellationRequest, spec specification.Specification) bool {
	switch s := spec.(type) {
	case specification.ByID:
		return r.Id == s.ID
	case specification.ByLessonAndStudent:
		return r.LessonId == s.LessonID && r.StudentId == s.StudentID
	case specification.OwnedByStudent:
		return r.StudentId == s.StudentID
	case specification.FilterBy:
		if s.Field == "status" {
			return sameValue(r.Status, s.Value)
		}
		return true
	case specification.ReviewedBetween:
		return r.ReviewedAt != nil && !r.ReviewedAt.Before(s.From) && r.ReviewedAt.Before(s.To)
	}
	return true
}

func (f *fakeCancellationRepo) Create(ctx context.Context, request *entity.CancellationRequest) error {
	f.store.requests = append(f.store.requests, request)
	return nil
}

func (f *fakeCancellationRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CancellationRequest, error) {
	for _, r := range f.store.requests {
		ok := true
		for _, spec := range specs {
			if !matchRequest(r, spec) {
				ok = false
				break
			}
		}
		if ok {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeCancellationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CancellationRequest, error) {
	var out []*entity.CancellationRequest
	for _, r := range f.store.requests {
		ok := true
		for _, spec := range specs {
			if !matchRequest(r, spec) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCancellationRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := f.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (f *fakeCancellationRepo) Update(ctx context.Context, request *entity.CancellationRequest) error {
	for i, r := range f.store.requests {
		if r.Id == request.Id {
			f.store.requests[i] = request
			return nil
		}
	}
	return fmt.Errorf("request %s not found", request.Id)
}

// --- makeup credits ---

type fakeCreditRepo struct {
	store *fakeStore
}

func matchCredit(c *entity.MakeupCredit, spec specification.Specification) bool {
	switch s := spec.(type) {
	case specification.ByID:
		return c.Id == s.ID
	case specification.OwnedByStudent:
		return c.StudentId == s.StudentID
	case specification.FilterBy:
		if s.Field == "status" {
			return sameValue(c.Status, s.Value)
		}
		return true
	case specification.ExpiresBefore:
		return c.ExpiresAt.Before(s.T)
	case specification.ExpiresBetween:
		return c.ExpiresAt.After(s.After) && !c.ExpiresAt.After(s.Until)
	}
	return true
}

func (f *fakeCreditRepo) Create(ctx context.Context, credit *entity.MakeupCredit) error {
	f.store.credits = append(f.store.credits, credit)
	return nil
}

func (f *fakeCreditRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MakeupCredit, error) {
	for _, c := range f.store.credits {
		ok := true
		for _, spec := range specs {
			if !matchCredit(c, spec) {
				ok = false
				break
			}
		}
		if ok {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCreditRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MakeupCredit, error) {
	var out []*entity.MakeupCredit
	for _, c := range f.store.credits {
		ok := true
		for _, spec := range specs {
			if !matchCredit(c, spec) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c)
		}
	}
	for _, spec := range specs {
		if s, isOrder := spec.(specification.OrderBy); isOrder && s.Field == "expires_at" {
			sort.Slice(out, func(i, j int) bool {
				if s.Desc {
					return out[i].ExpiresAt.After(out[j].ExpiresAt)
				}
				return out[i].ExpiresAt.Before(out[j].ExpiresAt)
			})
		}
	}
	return out, nil
}

func (f *fakeCreditRepo) Update(ctx context.Context, credit *entity.MakeupCredit) error {
	for i, c := range f.store.credits {
		if c.Id == credit.Id {
			f.store.credits[i] = credit
			return nil
		}
	}
	return fmt.Errorf("credit %s not found", credit.Id)
}

// --- lessons ---

type fakeLessonRepo struct {
	store *fakeStore
}

func matchLesson(l *entity.Lesson, spec specification.Specification) bool {
	switch s := spec.(type) {
	case specification.ByID:
		return l.Id == s.ID
	case specification.BySubjectAndTutor:
		return l.SubjectId == s.SubjectID && l.TutorId == s.TutorID
	case specification.FilterBy:
		if s.Field == "status" {
			return sameValue(l.Status, s.Value)
		}
		return true
	case specification.StartingAfter:
		return !l.StartTime.Before(s.T)
	case specification.StartingBefore:
		return l.StartTime.Before(s.T)
	}
	return true
}

func (f *fakeLessonRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Lesson, error) {
	all, _ := f.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (f *fakeLessonRepo) FindOneForUpdate(ctx context.Context, id uuid.UUID) (*entity.Lesson, error) {
	return f.store.lessons[id], nil
}

func (f *fakeLessonRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Lesson, error) {
	var out []*entity.Lesson
	for _, l := range f.store.lessons {
		ok := true
		for _, spec := range specs {
			if !matchLesson(l, spec) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	for _, spec := range specs {
		if s, isOrder := spec.(specification.OrderBy); isOrder && s.Field == "start_time" && s.Desc {
			sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
		}
	}
	return out, nil
}

func (f *fakeLessonRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.LessonStatus) error {
	l, ok := f.store.lessons[id]
	if !ok {
		return fmt.Errorf("lesson %s not found", id)
	}
	l.Status = status
	return nil
}

func (f *fakeLessonRepo) AddStudent(ctx context.Context, lessonId, studentId uuid.UUID) error {
	f.store.enroll(lessonId, studentId)
	return nil
}

func (f *fakeLessonRepo) RemoveStudent(ctx context.Context, lessonId, studentId uuid.UUID) error {
	delete(f.store.roster[lessonId], studentId)
	return nil
}

func (f *fakeLessonRepo) RosterSize(ctx context.Context, lessonId uuid.UUID) (int, error) {
	return len(f.store.roster[lessonId]), nil
}

func (f *fakeLessonRepo) IsEnrolled(ctx context.Context, lessonId, studentId uuid.UUID) (bool, error) {
	return f.store.roster[lessonId][studentId], nil
}

// --- invoices ---

type fakeInvoiceRepo struct {
	store *fakeStore
}

func (f *fakeInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	f.store.invoices[invoice.Id] = invoice
	return nil
}

func (f *fakeInvoiceRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Invoice, error) {
	for _, spec := range specs {
		if s, isById := spec.(specification.ByID); isById {
			return f.store.invoices[s.ID], nil
		}
	}
	return nil, nil
}

func (f *fakeInvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	f.store.invoices[invoice.Id] = invoice
	return nil
}

func (f *fakeInvoiceRepo) FindBilledItem(ctx context.Context, lessonId, studentId uuid.UUID) (*entity.InvoiceItem, error) {
	for _, item := range f.store.items {
		if item.LessonId != lessonId || item.StudentId != studentId {
			continue
		}
		invoice := f.store.invoices[item.InvoiceId]
		if invoice != nil && invoice.IsCorrectable() {
			return item, nil
		}
	}
	return nil, nil
}

func (f *fakeInvoiceRepo) RemoveItem(ctx context.Context, itemId uuid.UUID) error {
	for i, item := range f.store.items {
		if item.Id == itemId {
			f.store.items = append(f.store.items[:i], f.store.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("item %s not found", itemId)
}

func (f *fakeInvoiceRepo) SumItems(ctx context.Context, invoiceId uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, item := range f.store.items {
		if item.InvoiceId == invoiceId {
			sum = sum.Add(item.LineTotal)
		}
	}
	return sum, nil
}

type fakeSequenceRepo struct {
	store *fakeStore
}

func (f *fakeSequenceRepo) Next(ctx context.Context, prefix string, year, month int) (int64, error) {
	key := fmt.Sprintf("%s/%d/%d", prefix, year, month)
	f.store.seq[key]++
	return f.store.seq[key], nil
}

// --- outbox ---

type fakeOutboxRepo struct {
	store *fakeStore
}

func (f *fakeOutboxRepo) Enqueue(ctx context.Context, msg *entity.OutboxMessage) error {
	f.store.outbox = append(f.store.outbox, msg)
	return nil
}

func (f *fakeOutboxRepo) FindPending(ctx context.Context, limit int) ([]*entity.OutboxMessage, error) {
	var out []*entity.OutboxMessage
	for _, m := range f.store.outbox {
		if m.Status == entity.OutboxStatusPending {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) find(id uuid.UUID) *entity.OutboxMessage {
	for _, m := range f.store.outbox {
		if m.Id == id {
			return m
		}
	}
	return nil
}

func (f *fakeOutboxRepo) MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time) error {
	m := f.find(id)
	if m == nil {
		return fmt.Errorf("outbox row %s not found", id)
	}
	m.Status = entity.OutboxStatusDispatched
	m.DispatchedAt = &at
	return nil
}

func (f *fakeOutboxRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	m := f.find(id)
	if m == nil {
		return fmt.Errorf("outbox row %s not found", id)
	}
	m.Status = entity.OutboxStatusDelivered
	m.DeliveredAt = &at
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, maxAttempts int) error {
	m := f.find(id)
	if m == nil {
		return fmt.Errorf("outbox row %s not found", id)
	}
	m.Attempts++
	if m.Attempts >= maxAttempts {
		m.Status = entity.OutboxStatusFailed
	} else {
		m.Status = entity.OutboxStatusPending
	}
	return nil
}

// --- audit log ---

type fakeAuditRepo struct {
	store *fakeStore
}

func (f *fakeAuditRepo) Record(ctx context.Context, entry *entity.AuditEntry) error {
	f.store.audit = append(f.store.audit, entry)
	return nil
}

func (f *fakeAuditRepo) Exists(ctx context.Context, entityType string, entityId uuid.UUID, action string, onDate time.Time) (bool, error) {
	day := onDate.UTC().Truncate(24 * time.Hour)
	for _, e := range f.store.audit {
		if e.EntityType == entityType && e.EntityId == entityId && e.Action == action &&
			e.OccurredAt.UTC().Truncate(24*time.Hour).Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

type fakeUserRepo struct {
	store *fakeStore
}

func (f *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, spec := range specs {
		if s, isById := spec.(specification.ByID); isById {
			return f.store.users[s.ID], nil
		}
	}
	return nil, nil
}

// --- shared fixtures ---

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

func testPolicy() config.PolicyConfig {
	return config.PolicyConfig{
		CancellationNoticeHours:   24,
		MakeupValidityDays:        30,
		MonthlyCancellationLimit:  2,
		EnforceQuotaAtRequestTime: false,
		ExpiryWarningWindowDays:   7,
		SlotSearchLimit:           20,
		VATRate:                   decimal.RequireFromString("0.23"),
		CreditNotePrefix:          "KOR",
	}
}
