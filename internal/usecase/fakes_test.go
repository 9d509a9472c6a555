package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/data/entity"
	"bondoutfit/internal/data/repository"
	"bondoutfit/pkg/notify"

	"github.com/google/uuid"
)

// memStore backs every in-memory repository of a test.
type memStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*entity.User
	sessions      map[string]*entity.Session
	stores        map[uuid.UUID]*entity.Store
	staff         map[uuid.UUID]map[uuid.UUID]bool
	discounts     map[uuid.UUID]*entity.Discount
	visits        map[uuid.UUID]*entity.Visit
	audits        []*entity.VisitAudit
	notifications map[uuid.UUID]*entity.Notification

	updateErr map[uuid.UUID]error
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[uuid.UUID]*entity.User{},
		sessions:      map[string]*entity.Session{},
		stores:        map[uuid.UUID]*entity.Store{},
		staff:         map[uuid.UUID]map[uuid.UUID]bool{},
		discounts:     map[uuid.UUID]*entity.Discount{},
		visits:        map[uuid.UUID]*entity.Visit{},
		notifications: map[uuid.UUID]*entity.Notification{},
		updateErr:     map[uuid.UUID]error{},
	}
}

func (m *memStore) repository() *repository.Repository {
	return &repository.Repository{
		User:         &memUsers{m},
		Session:      &memSessions{m},
		Store:        &memStores{m},
		Discount:     &memDiscounts{m},
		Visit:        &memVisits{m},
		Audit:        &memAudits{m},
		Notification: &memNotifications{m},
	}
}

func (m *memStore) visit(id uuid.UUID) entity.Visit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.visits[id]
}

func (m *memStore) notificationsOf(typ entity.NotificationType) []entity.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Notification
	for _, n := range m.notifications {
		if n.Type == typ {
			out = append(out, *n)
		}
	}
	return out
}

func (m *memStore) auditCount(visitID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.audits {
		if a.VisitID == visitID {
			n++
		}
	}
	return n
}

type memUsers struct{ m *memStore }

func (r *memUsers) Create(_ context.Context, user *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u := *user
	r.m.users[user.ID] = &u
	return nil
}

func (r *memUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if u, ok := r.m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memUsers) UpdateRole(_ context.Context, id uuid.UUID, role entity.UserRole) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if u, ok := r.m.users[id]; ok {
		u.Role = role
	}
	return nil
}

type memSessions struct{ m *memStore }

func (r *memSessions) Create(_ context.Context, s *entity.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *s
	r.m.sessions[s.Token.String()] = &c
	return nil
}

func (r *memSessions) FindValidSession(_ context.Context, token uuid.UUID) (*entity.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[token.String()]
	if !ok || s.RevokedAt != nil {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r *memSessions) Revoke(_ context.Context, token uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.sessions[token.String()]; ok {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

type memStores struct{ m *memStore }

func (r *memStores) Create(_ context.Context, store *entity.Store) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *store
	r.m.stores[store.ID] = &c
	return nil
}

func (r *memStores) FindByID(_ context.Context, id uuid.UUID) (*entity.Store, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.stores[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, nil
}

func (r *memStores) IsStaff(_ context.Context, storeID, userID uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.stores[storeID]; ok && s.ManagerID == userID {
		return true, nil
	}
	return r.m.staff[storeID][userID], nil
}

func (r *memStores) AddStaff(_ context.Context, storeID, userID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.staff[storeID] == nil {
		r.m.staff[storeID] = map[uuid.UUID]bool{}
	}
	r.m.staff[storeID][userID] = true
	return nil
}

type memDiscounts struct{ m *memStore }

func (r *memDiscounts) Create(_ context.Context, d *entity.Discount) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *d
	r.m.discounts[d.ID] = &c
	return nil
}

func (r *memDiscounts) FindByID(_ context.Context, id uuid.UUID) (*entity.Discount, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if d, ok := r.m.discounts[id]; ok {
		c := *d
		return &c, nil
	}
	return nil, nil
}

type memVisits struct{ m *memStore }

func (r *memVisits) Create(_ context.Context, v *entity.Visit) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *v
	r.m.visits[v.ID] = &c
	return nil
}

func (r *memVisits) FindByID(_ context.Context, id uuid.UUID) (*entity.Visit, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if v, ok := r.m.visits[id]; ok {
		c := *v
		return &c, nil
	}
	return nil, nil
}

func (r *memVisits) filter(match func(*entity.Visit) bool) []*entity.Visit {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Visit
	for _, v := range r.m.visits {
		if match(v) {
			c := *v
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledDate.Equal(out[j].ScheduledDate) {
			return out[i].ScheduledDate.Before(out[j].ScheduledDate)
		}
		return out[i].ScheduledTime < out[j].ScheduledTime
	})
	return out
}

func matches(f repository.VisitFilter, v *entity.Visit) bool {
	if f.CustomerID != nil && v.CustomerID != *f.CustomerID {
		return false
	}
	if f.StoreID != nil && v.StoreID != *f.StoreID {
		return false
	}
	if f.Status != nil && v.Status != *f.Status {
		return false
	}
	if f.Date != nil && !v.ScheduledDate.Equal(*f.Date) {
		return false
	}
	return true
}

func (r *memVisits) FindAll(_ context.Context, f repository.VisitFilter, limit, offset int) ([]*entity.Visit, error) {
	all := r.filter(func(v *entity.Visit) bool { return matches(f, v) })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memVisits) Count(_ context.Context, f repository.VisitFilter) (int64, error) {
	return int64(len(r.filter(func(v *entity.Visit) bool { return matches(f, v) }))), nil
}

func (r *memVisits) FindScheduledByCustomer(_ context.Context, customerID uuid.UUID) ([]*entity.Visit, error) {
	return r.filter(func(v *entity.Visit) bool {
		return v.CustomerID == customerID && v.Status == entity.VisitStatusScheduled && !v.CheckedIn
	}), nil
}

func (r *memVisits) FindSweepCandidates(_ context.Context, onOrBefore time.Time) ([]*entity.Visit, error) {
	return r.filter(func(v *entity.Visit) bool {
		return v.Status == entity.VisitStatusScheduled && !v.CheckedIn && v.CancelledAt == nil &&
			!v.ScheduledDate.After(onOrBefore)
	}), nil
}

func (r *memVisits) FindStaleCheckedIn(_ context.Context, before time.Time) ([]*entity.Visit, error) {
	return r.filter(func(v *entity.Visit) bool {
		return v.Status == entity.VisitStatusCheckedIn && v.CheckedIn && v.CompletedAt == nil &&
			v.CheckedInAt != nil && v.CheckedInAt.Before(before)
	}), nil
}

func (r *memVisits) UpdateGuarded(_ context.Context, v *entity.Visit, expectStatus entity.VisitStatus, expectVersion time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.updateErr[v.ID]; err != nil {
		return err
	}
	stored, ok := r.m.visits[v.ID]
	if !ok || stored.Status != expectStatus || !stored.UpdatedAt.Equal(expectVersion) {
		return apperr.New(apperr.KindConflict, "visit changed concurrently, reload and retry")
	}
	c := *v
	if stored.DiscountCode != nil {
		c.DiscountCode = stored.DiscountCode
	}
	r.m.visits[v.ID] = &c
	return nil
}

func (r *memVisits) MarkDiscountUsed(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	v, ok := r.m.visits[id]
	if !ok || !v.DiscountUnlocked || v.DiscountUsed {
		return false, nil
	}
	v.DiscountUsed = true
	v.DiscountUsedAt = &at
	v.UpdatedAt = at
	return true, nil
}

type memAudits struct{ m *memStore }

func (r *memAudits) Create(_ context.Context, a *entity.VisitAudit) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *a
	r.m.audits = append(r.m.audits, &c)
	return nil
}

func (r *memAudits) FindByVisit(_ context.Context, visitID uuid.UUID) ([]*entity.VisitAudit, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.VisitAudit
	for _, a := range r.m.audits {
		if a.VisitID == visitID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memNotifications struct{ m *memStore }

func (r *memNotifications) Create(_ context.Context, n *entity.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *n
	r.m.notifications[n.ID] = &c
	return nil
}

func (r *memNotifications) Exists(_ context.Context, visitID uuid.UUID, typ entity.NotificationType, audience entity.NotificationAudience) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, n := range r.m.notifications {
		if n.VisitID != nil && *n.VisitID == visitID && n.Type == typ && n.Audience == audience {
			return true, nil
		}
	}
	return false, nil
}

func (r *memNotifications) UpdateStatus(_ context.Context, id uuid.UUID, status entity.NotificationStatus, sendErr *string, sentAt *time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if n, ok := r.m.notifications[id]; ok {
		n.Status = status
		n.Error = sendErr
		n.SentAt = sentAt
	}
	return nil
}

// recordingSender captures every delivered message.
type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []notify.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Message(nil), s.sent...)
}
