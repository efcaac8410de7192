package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/fleetops/services/scheduler/internal/messaging"
	"example.com/fleetops/services/scheduler/internal/models"
	"example.com/fleetops/services/scheduler/internal/repository"
)

// fakeShiftRepo is an in-memory ShiftRepository. Creation order is tracked so
// date-range queries come back ordered by date then creation time, matching
// the real repository.
type fakeShiftRepo struct {
	mu     sync.Mutex
	shifts map[uuid.UUID]*models.Shift
	seq    int
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{shifts: make(map[uuid.UUID]*models.Shift)}
}

func (r *fakeShiftRepo) Create(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	r.seq++
	shift.CreatedAt = time.Unix(int64(r.seq), 0)
	stored := *shift
	r.shifts[shift.ID] = &stored
	return shift, nil
}

func (r *fakeShiftRepo) Update(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shifts[shift.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	stored := *shift
	r.shifts[shift.ID] = &stored
	return shift, nil
}

func (r *fakeShiftRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shifts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.shifts, id)
	return nil
}

func (r *fakeShiftRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	shift, ok := r.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *shift
	return &copied, nil
}

func (r *fakeShiftRepo) all() []models.Shift {
	shifts := make([]models.Shift, 0, len(r.shifts))
	for _, shift := range r.shifts {
		shifts = append(shifts, *shift)
	}
	for i := 0; i < len(shifts); i++ {
		for j := i + 1; j < len(shifts); j++ {
			a, b := shifts[i], shifts[j]
			if b.ShiftDate.Before(a.ShiftDate) ||
				(b.ShiftDate.Equal(a.ShiftDate) && b.CreatedAt.Before(a.CreatedAt)) {
				shifts[i], shifts[j] = shifts[j], shifts[i]
			}
		}
	}
	return shifts
}

func (r *fakeShiftRepo) FindByDateRange(ctx context.Context, start, end time.Time, driverID *uuid.UUID) ([]models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Shift
	for _, shift := range r.all() {
		if shift.ShiftDate.Before(start) || shift.ShiftDate.After(end) {
			continue
		}
		if driverID != nil && shift.DriverID != *driverID {
			continue
		}
		out = append(out, shift)
	}
	return out, nil
}

func (r *fakeShiftRepo) FindForDriverOnDate(ctx context.Context, driverID uuid.UUID, date time.Time) ([]models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Shift
	for _, shift := range r.all() {
		if shift.DriverID == driverID && models.SameDate(shift.ShiftDate, date) {
			out = append(out, shift)
		}
	}
	return out, nil
}

func (r *fakeShiftRepo) FindForVehicleOnDate(ctx context.Context, vehicleID uuid.UUID, date time.Time) ([]models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Shift
	for _, shift := range r.all() {
		if shift.VehicleID == vehicleID && models.SameDate(shift.ShiftDate, date) {
			out = append(out, shift)
		}
	}
	return out, nil
}

func (r *fakeShiftRepo) FindPendingInRange(ctx context.Context, start, end time.Time, driverID *uuid.UUID) ([]models.Shift, error) {
	shifts, err := r.FindByDateRange(ctx, start, end, driverID)
	if err != nil {
		return nil, err
	}
	var out []models.Shift
	for _, shift := range shifts {
		if shift.Status == models.ShiftStatusPending {
			out = append(out, shift)
		}
	}
	return out, nil
}

func (r *fakeShiftRepo) DeleteInRange(ctx context.Context, start, end time.Time, onlyPending bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, shift := range r.shifts {
		if shift.ShiftDate.Before(start) || shift.ShiftDate.After(end) {
			continue
		}
		if onlyPending && shift.Status != models.ShiftStatusPending {
			continue
		}
		delete(r.shifts, id)
		deleted++
	}
	return deleted, nil
}

func (r *fakeShiftRepo) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := models.DateOnly(cutoff)
	var expired int64
	for _, shift := range r.shifts {
		if shift.Status == models.ShiftStatusPending && shift.ShiftDate.Before(day) {
			shift.Status = models.ShiftStatusExpired
			expired++
		}
	}
	return expired, nil
}

func (r *fakeShiftRepo) WithTransaction(ctx context.Context, fn func(txRepo repository.ShiftRepository) error) error {
	return fn(r)
}

// count returns how many stored shifts match the filter
func (r *fakeShiftRepo) count(match func(models.Shift) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, shift := range r.shifts {
		if match(*shift) {
			n++
		}
	}
	return n
}

// fakeTemplateRepo is an in-memory TemplateRepository
type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*models.ShiftTemplate
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[uuid.UUID]*models.ShiftTemplate)}
}

func (r *fakeTemplateRepo) Create(ctx context.Context, template *models.ShiftTemplate) (*models.ShiftTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	stored := *template
	r.templates[template.ID] = &stored
	return template, nil
}

func (r *fakeTemplateRepo) Update(ctx context.Context, template *models.ShiftTemplate) (*models.ShiftTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[template.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	stored := *template
	r.templates[template.ID] = &stored
	return template, nil
}

func (r *fakeTemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

func (r *fakeTemplateRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ShiftTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	template, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *template
	return &copied, nil
}

func (r *fakeTemplateRepo) GetByCode(ctx context.Context, code string) (*models.ShiftTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, template := range r.templates {
		if template.Code == code {
			copied := *template
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTemplateRepo) FindActive(ctx context.Context) ([]models.ShiftTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ShiftTemplate
	for _, template := range r.templates {
		if template.IsActive {
			out = append(out, *template)
		}
	}
	return out, nil
}

func (r *fakeTemplateRepo) List(ctx context.Context) ([]models.ShiftTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ShiftTemplate
	for _, template := range r.templates {
		out = append(out, *template)
	}
	return out, nil
}

// fakeReferenceRepo is an in-memory ReferenceRepository
type fakeReferenceRepo struct {
	mu       sync.Mutex
	drivers  map[uuid.UUID]*models.Driver
	vehicles map[uuid.UUID]*models.Vehicle
	apiKeys  map[string]*models.APIKey
}

func newFakeReferenceRepo() *fakeReferenceRepo {
	return &fakeReferenceRepo{
		drivers:  make(map[uuid.UUID]*models.Driver),
		vehicles: make(map[uuid.UUID]*models.Vehicle),
		apiKeys:  make(map[string]*models.APIKey),
	}
}

func (r *fakeReferenceRepo) GetDriver(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	driver, ok := r.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *driver
	return &copied, nil
}

func (r *fakeReferenceRepo) ListDrivers(ctx context.Context, activeOnly bool) ([]models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Driver
	for _, driver := range r.drivers {
		if activeOnly && !driver.Active {
			continue
		}
		out = append(out, *driver)
	}
	return out, nil
}

func (r *fakeReferenceRepo) UpsertDriver(ctx context.Context, driver *models.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if driver.ID == uuid.Nil {
		driver.ID = uuid.New()
	}
	stored := *driver
	r.drivers[driver.ID] = &stored
	return nil
}

func (r *fakeReferenceRepo) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	vehicle, ok := r.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *vehicle
	return &copied, nil
}

func (r *fakeReferenceRepo) ListVehicles(ctx context.Context, activeOnly bool) ([]models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Vehicle
	for _, vehicle := range r.vehicles {
		if activeOnly && !vehicle.Active {
			continue
		}
		out = append(out, *vehicle)
	}
	return out, nil
}

func (r *fakeReferenceRepo) UpsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	stored := *vehicle
	r.vehicles[vehicle.ID] = &stored
	return nil
}

func (r *fakeReferenceRepo) GetAPIKeyByKey(ctx context.Context, key string) (*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	apiKey, ok := r.apiKeys[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *apiKey
	return &copied, nil
}

func (r *fakeReferenceRepo) CreateAPIKey(ctx context.Context, apiKey *models.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if apiKey.ID == uuid.Nil {
		apiKey.ID = uuid.New()
	}
	stored := *apiKey
	r.apiKeys[apiKey.Key] = &stored
	return nil
}

func (r *fakeReferenceRepo) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	apiKeys := make([]models.APIKey, 0, len(r.apiKeys))
	for _, apiKey := range r.apiKeys {
		apiKeys = append(apiKeys, *apiKey)
	}
	return apiKeys, nil
}

func (r *fakeReferenceRepo) DeleteAPIKey(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, apiKey := range r.apiKeys {
		if apiKey.ID == id {
			delete(r.apiKeys, key)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeReferenceRepo) UpdateAPIKey(ctx context.Context, apiKey *models.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *apiKey
	r.apiKeys[apiKey.Key] = &stored
	return nil
}

// fakeBus records published messages
type fakeBus struct {
	mu   sync.Mutex
	sent []interface{}
}

func (b *fakeBus) SendMessage(ctx context.Context, body interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, body)
	return nil
}

func (b *fakeBus) ProcessMessages(ctx context.Context, handler messaging.MessageHandler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *fakeBus) Close() error { return nil }

// testEnv bundles the service under test with its fakes
type testEnv struct {
	svc          Service
	shiftRepo    *fakeShiftRepo
	templateRepo *fakeTemplateRepo
	refRepo      *fakeReferenceRepo
	bus          *fakeBus
}

func newTestEnv() *testEnv {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	env := &testEnv{
		shiftRepo:    newFakeShiftRepo(),
		templateRepo: newFakeTemplateRepo(),
		refRepo:      newFakeReferenceRepo(),
		bus:          &fakeBus{},
	}

	svc, err := NewService(ServiceConfig{
		ShiftRepository:    env.shiftRepo,
		TemplateRepository: env.templateRepo,
		ReferenceRepo:      env.refRepo,
		MessagingClient:    env.bus,
		Logger:             log,
	})
	if err != nil {
		panic(err)
	}
	env.svc = svc
	return env
}

// addDriver seeds a driver with a default vehicle and returns both ids
func (e *testEnv) addDriver(name string) (uuid.UUID, uuid.UUID) {
	vehicle := &models.Vehicle{
		Base:         models.Base{ID: uuid.New()},
		Registration: "KDA " + name,
		Active:       true,
	}
	if err := e.refRepo.UpsertVehicle(context.Background(), vehicle); err != nil {
		panic(err)
	}

	driver := &models.Driver{
		Base:              models.Base{ID: uuid.New()},
		Name:              name,
		EmployeeNo:        "EMP-" + name,
		AssignedVehicleID: &vehicle.ID,
		Active:            true,
	}
	if err := e.refRepo.UpsertDriver(context.Background(), driver); err != nil {
		panic(err)
	}
	return driver.ID, vehicle.ID
}

// addTemplate seeds an active template and returns its id
func (e *testEnv) addTemplate(name, start, end string) uuid.UUID {
	template := &models.ShiftTemplate{
		Base:      models.Base{ID: uuid.New()},
		Name:      name,
		Code:      models.TemplateCode(name),
		StartTime: start,
		EndTime:   end,
		Color:     "#1565c0",
		IsActive:  true,
	}
	if _, err := e.templateRepo.Create(context.Background(), template); err != nil {
		panic(err)
	}
	return template.ID
}

// futureDate returns a date string safely in the future so pending shifts do
// not read as expired during the test run.
func futureDate(daysAhead int) string {
	return time.Now().UTC().AddDate(0, 0, daysAhead).Format(DateFormat)
}
