package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/repository"
)

// memStore is an in-memory unit of work. Units of work run one at a time,
// which is the strongest form of the row leases the service relies on, and a
// failed unit of work restores the state it started from.
type memStore struct {
	txMu   sync.Mutex
	dataMu sync.Mutex
	data   memData

	// notifyErr, when set, fails notification inserts it returns an error for.
	notifyErr func(n *domain.Notification) error

	commits   int
	rollbacks int
}

type memData struct {
	nextID        int32
	users         map[int32]domain.User
	resources     map[int32]domain.Resource
	requests      map[int32]domain.Request
	transactions  map[int32]domain.Transaction
	notifications []domain.Notification
	reports       map[int32]domain.Report
	reviews       []domain.Review
}

func newMemStore() *memStore {
	return &memStore{data: memData{
		users:        map[int32]domain.User{},
		resources:    map[int32]domain.Resource{},
		requests:     map[int32]domain.Request{},
		transactions: map[int32]domain.Transaction{},
		reports:      map[int32]domain.Report{},
	}}
}

func (d memData) clone() memData {
	c := d
	c.users = cloneMap(d.users)
	c.resources = cloneMap(d.resources)
	c.requests = cloneMap(d.requests)
	c.transactions = cloneMap(d.transactions)
	c.reports = cloneMap(d.reports)
	c.notifications = append([]domain.Notification(nil), d.notifications...)
	c.reviews = append([]domain.Review(nil), d.reviews...)
	return c
}

func cloneMap[V any](m map[int32]V) map[int32]V {
	out := make(map[int32]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) id() int32 {
	s.data.nextID++
	return s.data.nextID
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.dataMu.Lock()
	snapshot := s.data.clone()
	s.dataMu.Unlock()

	if err := fn(memTx{s}); err != nil {
		s.dataMu.Lock()
		s.data = snapshot
		s.rollbacks++
		s.dataMu.Unlock()
		return err
	}
	s.dataMu.Lock()
	s.commits++
	s.dataMu.Unlock()
	return nil
}

type memTx struct{ s *memStore }

func (t memTx) Users() repository.UserRepository                 { return memUsers{t.s} }
func (t memTx) Resources() repository.ResourceRepository         { return memResources{t.s} }
func (t memTx) Requests() repository.RequestRepository           { return memRequests{t.s} }
func (t memTx) Transactions() repository.TransactionRepository   { return memTransactions{t.s} }
func (t memTx) Notifications() repository.NotificationRepository { return memNotifications{t.s} }
func (t memTx) Reports() repository.ReportRepository             { return memReports{t.s} }
func (t memTx) Reviews() repository.ReviewRepository             { return memReviews{t.s} }

func (t memTx) Isolate(ctx context.Context, name string, fn func() error) error {
	t.s.dataMu.Lock()
	saved := append([]domain.Notification(nil), t.s.data.notifications...)
	t.s.dataMu.Unlock()
	if err := fn(); err != nil {
		t.s.dataMu.Lock()
		t.s.data.notifications = saved
		t.s.dataMu.Unlock()
		return err
	}
	return nil
}

// Seeding and inspection helpers.

func (s *memStore) addUser(u domain.User) domain.User {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	if u.Role == "" {
		u.Role = domain.UserRoleMember
	}
	s.data.users[u.ID] = u
	return u
}

func (s *memStore) addResource(r domain.Resource) domain.Resource {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if r.ID == 0 {
		r.ID = s.id()
	}
	if r.AvailabilityStatus == "" {
		r.AvailabilityStatus = domain.AvailabilityAvailable
	}
	s.data.resources[r.ID] = r
	return r
}

func (s *memStore) addRequest(r domain.Request) domain.Request {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if r.ID == 0 {
		r.ID = s.id()
	}
	if r.PickupMethod == "" {
		r.PickupMethod = domain.PickupMethodPickup
	}
	s.data.requests[r.ID] = r
	return r
}

func (s *memStore) request(id int32) domain.Request {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.data.requests[id]
}

func (s *memStore) resource(id int32) domain.Resource {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.data.resources[id]
}

func (s *memStore) transactionFor(requestID int32) (domain.Transaction, bool) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	for _, t := range s.data.transactions {
		if t.RequestID == requestID {
			return t, true
		}
	}
	return domain.Transaction{}, false
}

func (s *memStore) notificationsFor(userID int32) []domain.Notification {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	var out []domain.Notification
	for _, n := range s.data.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func notFound(entity string, id any) error {
	return fmt.Errorf("%w: %s %v", domain.ErrNotFound, entity, id)
}

func paginate[T any](items []T, page, pageSize int32) []T {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	start := int((page - 1) * pageSize)
	if start >= len(items) {
		return nil
	}
	end := start + int(pageSize)
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, u *domain.User) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	for _, existing := range r.s.data.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("%w: user already exists", domain.ErrConflict)
		}
	}
	u.ID = r.s.id()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.s.data.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, notFound("user", email)
}

func (r memUsers) List(ctx context.Context, page, pageSize int32) ([]domain.User, int32, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var all []domain.User
	for _, u := range r.s.data.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, page, pageSize), int32(len(all)), nil
}

func (r memUsers) SetBanned(ctx context.Context, id int32, banned bool) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return notFound("user", id)
	}
	u.IsBanned = banned
	r.s.data.users[id] = u
	return nil
}

type memResources struct{ s *memStore }

func (r memResources) Create(ctx context.Context, res *domain.Resource) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	res.ID = r.s.id()
	r.s.data.resources[res.ID] = *res
	return nil
}

func (r memResources) get(id int32) (*domain.Resource, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	res, ok := r.s.data.resources[id]
	if !ok || res.DeletedAt != nil {
		return nil, notFound("resource", id)
	}
	return &res, nil
}

func (r memResources) GetByID(ctx context.Context, id int32) (*domain.Resource, error) {
	return r.get(id)
}

func (r memResources) GetForUpdate(ctx context.Context, id int32) (*domain.Resource, error) {
	return r.get(id)
}

func (r memResources) Lock(ctx context.Context, id int32) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	if _, ok := r.s.data.resources[id]; !ok {
		return notFound("resource", id)
	}
	return nil
}

func (r memResources) Update(ctx context.Context, res *domain.Resource) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	cur, ok := r.s.data.resources[res.ID]
	if !ok || cur.DeletedAt != nil {
		return notFound("resource", res.ID)
	}
	cur.Name, cur.Description, cur.Category, cur.Location = res.Name, res.Description, res.Category, res.Location
	r.s.data.resources[res.ID] = cur
	return nil
}

func (r memResources) SetAvailability(ctx context.Context, id int32, status domain.AvailabilityStatus) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	cur, ok := r.s.data.resources[id]
	if !ok {
		return notFound("resource", id)
	}
	cur.AvailabilityStatus = status
	r.s.data.resources[id] = cur
	return nil
}

func (r memResources) SoftDelete(ctx context.Context, id int32) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	cur, ok := r.s.data.resources[id]
	if !ok || cur.DeletedAt != nil {
		return notFound("resource", id)
	}
	now := time.Now().UTC()
	cur.DeletedAt = &now
	r.s.data.resources[id] = cur
	return nil
}

func (r memResources) List(ctx context.Context, f domain.ResourceFilter) ([]domain.Resource, int32, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var all []domain.Resource
	for _, res := range r.s.data.resources {
		if res.DeletedAt != nil {
			continue
		}
		if f.Availability != "" && res.AvailabilityStatus != f.Availability {
			continue
		}
		if f.Category != "" && res.Category != f.Category {
			continue
		}
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, f.Page, f.PageSize), int32(len(all)), nil
}

func (r memResources) ListIDs(ctx context.Context) ([]int32, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var ids []int32
	for id, res := range r.s.data.resources {
		if res.DeletedAt == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type memRequests struct{ s *memStore }

func (r memRequests) withName(req domain.Request) domain.Request {
	if res, ok := r.s.data.resources[req.ResourceID]; ok {
		req.ResourceName = res.Name
	}
	return req
}

func (r memRequests) Create(ctx context.Context, req *domain.Request) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	req.ID = r.s.id()
	r.s.data.requests[req.ID] = *req
	return nil
}

func (r memRequests) GetByID(ctx context.Context, id int32) (*domain.Request, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	req, ok := r.s.data.requests[id]
	if !ok {
		return nil, notFound("request", id)
	}
	req = r.withName(req)
	return &req, nil
}

func (r memRequests) GetForUpdate(ctx context.Context, id int32) (*domain.Request, error) {
	return r.GetByID(ctx, id)
}

func (r memRequests) UpdateStatus(ctx context.Context, id int32, status domain.RequestStatus) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	req, ok := r.s.data.requests[id]
	if !ok {
		return notFound("request", id)
	}
	req.Status = status
	r.s.data.requests[id] = req
	return nil
}

func (r memRequests) filter(keep func(domain.Request) bool) []domain.Request {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var out []domain.Request
	for _, req := range r.s.data.requests {
		if keep(req) {
			out = append(out, r.withName(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memRequests) ListActiveForUpdate(ctx context.Context, resourceID int32) ([]domain.Request, error) {
	return r.filter(func(req domain.Request) bool {
		return req.ResourceID == resourceID && !req.Status.Terminal()
	}), nil
}

func (r memRequests) List(ctx context.Context, f domain.RequestFilter) ([]domain.Request, int32, error) {
	all := r.filter(func(req domain.Request) bool {
		if f.RequesterID != 0 && req.RequesterID != f.RequesterID {
			return false
		}
		if f.OwnerID != 0 && req.OwnerID != f.OwnerID {
			return false
		}
		if f.ResourceID != 0 && req.ResourceID != f.ResourceID {
			return false
		}
		if len(f.Statuses) > 0 {
			for _, st := range f.Statuses {
				if req.Status == st {
					return true
				}
			}
			return false
		}
		return true
	})
	return paginate(all, f.Page, f.PageSize), int32(len(all)), nil
}

func (r memRequests) ListPendingPickupBefore(ctx context.Context, date string) ([]int32, error) {
	var ids []int32
	for _, req := range r.filter(func(req domain.Request) bool {
		return req.Status == domain.RequestStatusPending && req.PickupDate < date
	}) {
		ids = append(ids, req.ID)
	}
	return ids, nil
}

func (r memRequests) ListAcceptedReturnBefore(ctx context.Context, date string) ([]domain.Request, error) {
	return r.filter(func(req domain.Request) bool {
		return req.Status == domain.RequestStatusAccepted && req.ReturnDate < date
	}), nil
}

func (r memRequests) Delete(ctx context.Context, id int32) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	if _, ok := r.s.data.requests[id]; !ok {
		return notFound("request", id)
	}
	delete(r.s.data.requests, id)
	return nil
}

type memTransactions struct{ s *memStore }

func (r memTransactions) Create(ctx context.Context, t *domain.Transaction) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	for _, existing := range r.s.data.transactions {
		if existing.RequestID == t.RequestID {
			return fmt.Errorf("%w: transaction for request already exists", domain.ErrConflict)
		}
	}
	t.ID = r.s.id()
	r.s.data.transactions[t.ID] = *t
	return nil
}

func (r memTransactions) GetByRequestID(ctx context.Context, requestID int32) (*domain.Transaction, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	for _, t := range r.s.data.transactions {
		if t.RequestID == requestID {
			return &t, nil
		}
	}
	return nil, notFound("transaction for request", requestID)
}

func (r memTransactions) Close(ctx context.Context, id int32, status domain.TransactionStatus, returnedAt *time.Time) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	t, ok := r.s.data.transactions[id]
	if !ok {
		return notFound("transaction", id)
	}
	t.Status = status
	if returnedAt != nil {
		t.ActualReturnDate = returnedAt
	}
	r.s.data.transactions[id] = t
	return nil
}

func (r memTransactions) ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Transaction, int32, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var all []domain.Transaction
	for _, t := range r.s.data.transactions {
		if t.BorrowerID == userID || t.LenderID == userID {
			all = append(all, t)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, page, pageSize), int32(len(all)), nil
}

type memNotifications struct{ s *memStore }

func (r memNotifications) Create(ctx context.Context, n *domain.Notification) error {
	if r.s.notifyErr != nil {
		if err := r.s.notifyErr(n); err != nil {
			return err
		}
	}
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	n.ID = r.s.id()
	r.s.data.notifications = append(r.s.data.notifications, *n)
	return nil
}

func (r memNotifications) List(ctx context.Context, userID int32, unreadOnly bool, limit, offset int32) ([]domain.Notification, int32, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var all []domain.Notification
	for _, n := range r.s.data.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			all = append(all, n)
		}
	}
	end := int(offset + limit)
	if end > len(all) {
		end = len(all)
	}
	if int(offset) >= len(all) {
		return nil, int32(len(all)), nil
	}
	return all[offset:end], int32(len(all)), nil
}

func (r memNotifications) CountUnread(ctx context.Context, userID int32) (int32, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var n int32
	for _, note := range r.s.data.notifications {
		if note.UserID == userID && !note.IsRead {
			n++
		}
	}
	return n, nil
}

func (r memNotifications) MarkAsRead(ctx context.Context, id, userID int32) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	for i, n := range r.s.data.notifications {
		if n.ID == id && n.UserID == userID {
			r.s.data.notifications[i].IsRead = true
			return nil
		}
	}
	return notFound("notification", id)
}

type memReports struct{ s *memStore }

func (r memReports) Create(ctx context.Context, rp *domain.Report) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	rp.ID = r.s.id()
	r.s.data.reports[rp.ID] = *rp
	return nil
}

func (r memReports) GetByID(ctx context.Context, id int32) (*domain.Report, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	rp, ok := r.s.data.reports[id]
	if !ok {
		return nil, notFound("report", id)
	}
	return &rp, nil
}

func (r memReports) GetForUpdate(ctx context.Context, id int32) (*domain.Report, error) {
	return r.GetByID(ctx, id)
}

func (r memReports) ExistsForRequest(ctx context.Context, requestID int32) (bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	for _, rp := range r.s.data.reports {
		if rp.RequestID == requestID {
			return true, nil
		}
	}
	return false, nil
}

func (r memReports) Update(ctx context.Context, rp *domain.Report) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	if _, ok := r.s.data.reports[rp.ID]; !ok {
		return notFound("report", rp.ID)
	}
	r.s.data.reports[rp.ID] = *rp
	return nil
}

func (r memReports) List(ctx context.Context, status domain.ReportStatus, page, pageSize int32) ([]domain.Report, int32, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var all []domain.Report
	for _, rp := range r.s.data.reports {
		if status == "" || rp.Status == status {
			all = append(all, rp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, page, pageSize), int32(len(all)), nil
}

type memReviews struct{ s *memStore }

func (r memReviews) Create(ctx context.Context, rv *domain.Review) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	rv.ID = r.s.id()
	r.s.data.reviews = append(r.s.data.reviews, *rv)
	return nil
}

func (r memReviews) Exists(ctx context.Context, requestID, reviewerID int32) (bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	for _, rv := range r.s.data.reviews {
		if rv.RequestID == requestID && rv.ReviewerID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (r memReviews) ListByReviewee(ctx context.Context, revieweeID int32) ([]domain.Review, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var out []domain.Review
	for _, rv := range r.s.data.reviews {
		if rv.RevieweeID == revieweeID {
			out = append(out, rv)
		}
	}
	return out, nil
}

// recordingNotifier captures what the services hand over after commit.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (n *recordingNotifier) Enqueue(notes ...domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, notes...)
}

func (n *recordingNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.notes...)
}

var errNotifyDown = errors.New("notification store unavailable")
