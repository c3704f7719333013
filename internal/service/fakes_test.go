package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"dirigia/internal/llm"
	"dirigia/internal/model"
	"dirigia/internal/payment"
	"dirigia/internal/pgmq"
	"dirigia/internal/repository"
)

// memDB backs every fake repository so cross-table effects stay consistent.
type memDB struct {
	mu        sync.Mutex
	profiles  map[string]*model.Profile
	resources []*model.Resource
	payments  map[string]*model.Payment
	events    map[string]bool
	ocr       []*model.OcrRaw
	prefs     map[string]*model.Preferences
	failWrite error
	seq       int
}

func newMemDB() *memDB {
	return &memDB{
		profiles: map[string]*model.Profile{},
		payments: map[string]*model.Payment{},
		events:   map[string]bool{},
		prefs:    map[string]*model.Preferences{},
	}
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

func (db *memDB) addProfile(id, email string, plan model.Plan) *model.Profile {
	p := &model.Profile{ID: id, Email: email, Name: "Fulano", Plan: plan}
	db.profiles[id] = p
	return p
}

type fakeProfiles struct{ db *memDB }

func (f fakeProfiles) EnsureProfile(_ context.Context, p *model.Profile) (*model.Profile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if existing, ok := f.db.profiles[p.ID]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *p
	cp.Plan = model.PlanFree
	f.db.profiles[p.ID] = &cp
	out := cp
	return &out, nil
}

func (f fakeProfiles) GetByID(_ context.Context, id string) (*model.Profile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f fakeProfiles) GetByEmail(_ context.Context, email string) (*model.Profile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, p := range f.db.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeProfiles) UpdateName(_ context.Context, id, name string) (*model.Profile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.profiles[id]
	if !ok {
		return nil, nil
	}
	p.Name = name
	cp := *p
	return &cp, nil
}

func (f fakeProfiles) SetPlan(_ context.Context, id string, plan model.Plan) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.profiles[id]
	if !ok {
		return false, nil
	}
	p.Plan = plan
	return true, nil
}

func (f fakeProfiles) Delete(_ context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	delete(f.db.profiles, id)
	return nil
}

type fakeResources struct{ db *memDB }

func (f fakeResources) countLocked(userID string, start, end time.Time) int {
	n := 0
	for _, r := range f.db.resources {
		if r.UserID == userID && !r.CreatedAt.Before(start) && r.CreatedAt.Before(end) {
			n++
		}
	}
	return n
}

func (f fakeResources) CreateAndIncrement(_ context.Context, res *model.Resource, q repository.Quota) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWrite != nil {
		return f.db.failWrite
	}
	p, ok := f.db.profiles[res.UserID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	if p.Plan != model.PlanPremium && q.Limit > 0 && f.countLocked(res.UserID, q.Start, q.End) >= q.Limit {
		return repository.ErrResourceLimitReached
	}
	res.ID = f.db.nextID("res")
	res.CreatedAt = q.Start.Add(time.Hour)
	cp := *res
	f.db.resources = append(f.db.resources, &cp)
	p.ResourcesCount++
	return nil
}

func (f fakeResources) CountInRange(_ context.Context, userID string, start, end time.Time) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.countLocked(userID, start, end), nil
}

func (f fakeResources) GetByID(_ context.Context, userID, id string) (*model.Resource, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, r := range f.db.resources {
		if r.ID == id && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeResources) ListByUser(_ context.Context, userID string, limit, offset int) ([]model.Resource, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Resource
	for i := len(f.db.resources) - 1; i >= 0; i-- {
		if f.db.resources[i].UserID == userID {
			out = append(out, *f.db.resources[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeResources) Delete(_ context.Context, userID, id string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for i, r := range f.db.resources {
		if r.ID == id && r.UserID == userID {
			f.db.resources = append(f.db.resources[:i], f.db.resources[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f fakeResources) SetPdfURL(_ context.Context, userID, id, pdfURL string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, r := range f.db.resources {
		if r.ID == id && r.UserID == userID {
			r.PdfURL = &pdfURL
		}
	}
	return nil
}

type fakePayments struct{ db *memDB }

func (f fakePayments) InsertPendingIfAbsent(_ context.Context, p *model.Payment) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWrite != nil {
		return false, f.db.failWrite
	}
	if _, ok := f.db.payments[p.BillingID]; ok {
		return false, nil
	}
	cp := *p
	cp.Status = model.PaymentPending
	f.db.payments[p.BillingID] = &cp
	return true, nil
}

func (f fakePayments) ApprovePurchase(_ context.Context, p *model.Payment) (repository.UpsertResult, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWrite != nil {
		return repository.Unchanged, f.db.failWrite
	}
	if prof, ok := f.db.profiles[p.UserID]; ok {
		prof.Plan = model.PlanPremium
	}
	existing, ok := f.db.payments[p.BillingID]
	if !ok {
		cp := *p
		cp.Status = model.PaymentPaid
		f.db.payments[p.BillingID] = &cp
		return repository.Inserted, nil
	}
	if existing.Status != model.PaymentPending {
		return repository.Unchanged, nil
	}
	existing.Status = model.PaymentPaid
	existing.PaidAt = p.PaidAt
	if existing.UserID == "" {
		existing.UserID = p.UserID
	}
	if existing.ProviderRef == nil {
		existing.ProviderRef = p.ProviderRef
	}
	return repository.Updated, nil
}

func (f fakePayments) MarkExpired(_ context.Context, billingID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.payments[billingID]
	if !ok || p.Status != model.PaymentPending {
		return false, nil
	}
	p.Status = model.PaymentExpired
	return true, nil
}

func (f fakePayments) GetByBillingID(_ context.Context, billingID string) (*model.Payment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.payments[billingID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f fakePayments) GetByProviderRef(_ context.Context, ref string) (*model.Payment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, p := range f.db.payments {
		if p.ProviderRef != nil && *p.ProviderRef == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakePayments) ListByUser(_ context.Context, userID string) ([]model.Payment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Payment
	for _, p := range f.db.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeLedger struct{ db *memDB }

func (f fakeLedger) Seen(_ context.Context, provider, eventID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.events[provider+"/"+eventID], nil
}

func (f fakeLedger) Record(_ context.Context, e *model.WebhookEvent) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	key := e.Provider + "/" + e.EventID
	if f.db.events[key] {
		return false, nil
	}
	f.db.events[key] = true
	return true, nil
}

type fakeOcrRaw struct{ db *memDB }

func (f fakeOcrRaw) Create(_ context.Context, o *model.OcrRaw) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWrite != nil {
		return f.db.failWrite
	}
	cp := *o
	f.db.ocr = append(f.db.ocr, &cp)
	return nil
}

type fakePrefs struct{ db *memDB }

func (f fakePrefs) Get(_ context.Context, userID string) (*model.Preferences, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.prefs[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f fakePrefs) Upsert(_ context.Context, p *model.Preferences) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	cp := *p
	f.db.prefs[p.UserID] = &cp
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []Change
}

func (n *recordingNotifier) Notify(_ context.Context, c Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
}

type fakeLLM struct {
	mu      sync.Mutex
	calls   int
	answer  []byte
	text    string
	err     error
	lastDoc llm.Document
	lastReq llm.AppealRequest
	ctxErr  error
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Extract(ctx context.Context, doc llm.Document) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ctxErr = ctx.Err()
	f.lastDoc = doc
	return f.answer, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, req llm.AppealRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ctxErr = ctx.Err()
	f.lastReq = req
	return f.text, f.err
}

type fakeAbacate struct {
	created  []payment.BillingRequest
	billing  *payment.Billing
	err      error
	simulate json.RawMessage
}

func (f *fakeAbacate) CreateBilling(_ context.Context, req payment.BillingRequest) (*payment.Billing, error) {
	f.created = append(f.created, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.billing, nil
}

func (f *fakeAbacate) ListBillings(_ context.Context) (*payment.BillingList, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &payment.BillingList{Raw: json.RawMessage(`{"data":[]}`)}, nil
}

func (f *fakeAbacate) FindBilling(_ context.Context, id string) (*payment.Billing, error) {
	if f.billing != nil && f.billing.ID == id {
		return f.billing, nil
	}
	return nil, f.err
}

func (f *fakeAbacate) SimulatePayment(_ context.Context, _ string) (json.RawMessage, error) {
	return f.simulate, f.err
}

type fakeCard struct {
	req payment.CardCheckoutRequest
}

func (f *fakeCard) Name() string { return payment.ProviderStripe }

func (f *fakeCard) CreateCheckout(_ context.Context, req payment.CardCheckoutRequest) (*payment.CardCheckout, error) {
	f.req = req
	return &payment.CardCheckout{Provider: payment.ProviderStripe, URL: "https://checkout.stripe.com/c/cs_1", BillingID: "cs_1"}, nil
}

type sentJob struct {
	queue   string
	payload []byte
	delay   time.Duration
}

type fakeQueue struct {
	mu   sync.Mutex
	sent []sentJob
}

func (q *fakeQueue) Send(_ context.Context, queue string, payload []byte, delay time.Duration) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, sentJob{queue: queue, payload: payload, delay: delay})
	return int64(len(q.sent)), nil
}

func (q *fakeQueue) ReadWithPoll(context.Context, string, time.Duration, time.Duration, int) ([]*pgmq.Message, error) {
	return nil, nil
}

func (q *fakeQueue) Delete(context.Context, string, []int64) error { return nil }

type fakeExport struct {
	rows [][]*string
	got  repository.ExportQuery
	err  error
}

func (f *fakeExport) Stream(_ context.Context, q repository.ExportQuery, fn func([]*string) error) error {
	f.got = q
	if f.err != nil {
		return f.err
	}
	for _, r := range f.rows {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

var errDBDown = errors.New("connection refused")
