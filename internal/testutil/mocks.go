package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"telemed-chat-be/internal/dto"
	"telemed-chat-be/internal/entity"
	"telemed-chat-be/internal/model"
	"telemed-chat-be/internal/repository/contract"
	"telemed-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// NopLogger satisfies logger.ILogger and discards everything.
type NopLogger struct{}

func (NopLogger) Debug(module, message string, details map[string]interface{}) {}
func (NopLogger) Info(module, message string, details map[string]interface{})  {}
func (NopLogger) Warn(module, message string, details map[string]interface{})  {}
func (NopLogger) Error(module, message string, details map[string]interface{}) {}
func (NopLogger) Sync() error                                                  { return nil }

// InMemoryStore is a map-backed stand-in for the Postgres repositories.
// It honors the store contracts: ids/seq/sent_at assigned on create,
// history ordered by (sent_at, seq).
type InMemoryStore struct {
	mu sync.Mutex

	seq          int64
	Messages     map[uuid.UUID][]*entity.ChatMessage
	Appointments map[uuid.UUID]*entity.Appointment
	Participants map[uuid.UUID]*entity.Participant
	AuditLogs    []*model.ChatAuditLog

	// FailMessageCreate simulates a persistence outage.
	FailMessageCreate bool

	AppointmentLookups int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		Messages:     make(map[uuid.UUID][]*entity.ChatMessage),
		Appointments: make(map[uuid.UUID]*entity.Appointment),
		Participants: make(map[uuid.UUID]*entity.Participant),
	}
}

// AddAppointment seeds an appointment and returns it.
func (s *InMemoryStore) AddAppointment(patientId, doctorId uuid.UUID, cancelled bool) *entity.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointment := &entity.Appointment{
		Id:          uuid.New(),
		PatientId:   patientId,
		DoctorId:    doctorId,
		Cancelled:   cancelled,
		ScheduledAt: time.Now().Add(time.Hour),
		CreatedAt:   time.Now(),
	}
	s.Appointments[appointment.Id] = appointment
	return appointment
}

func (s *InMemoryStore) MessageCount(appointmentId uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Messages[appointmentId])
}

func (s *InMemoryStore) AuditCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.AuditLogs)
}

// NewUnitOfWork implements unitofwork.RepositoryFactory.
func (s *InMemoryStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &inMemoryUow{store: s}
}

type inMemoryUow struct {
	store *InMemoryStore
}

func (u *inMemoryUow) Begin(ctx context.Context) error { return nil }
func (u *inMemoryUow) Commit() error                   { return nil }
func (u *inMemoryUow) Rollback() error                 { return nil }

func (u *inMemoryUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &inMemoryChatMessageRepo{store: u.store}
}

func (u *inMemoryUow) AppointmentRepository() contract.AppointmentRepository {
	return &inMemoryAppointmentRepo{store: u.store}
}

func (u *inMemoryUow) ParticipantRepository() contract.ParticipantRepository {
	return &inMemoryParticipantRepo{store: u.store}
}

func (u *inMemoryUow) ChatAuditRepository() contract.ChatAuditRepository {
	return &inMemoryChatAuditRepo{store: u.store}
}

type inMemoryChatMessageRepo struct {
	store *InMemoryStore
}

func (r *inMemoryChatMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.FailMessageCreate {
		return errors.New("simulated store outage")
	}

	r.store.seq++
	message.Id = uuid.New()
	message.Seq = r.store.seq
	message.SentAt = time.Now()

	cp := *message
	r.store.Messages[message.AppointmentId] = append(r.store.Messages[message.AppointmentId], &cp)
	return nil
}

func (r *inMemoryChatMessageRepo) FindByAppointment(ctx context.Context, appointmentId uuid.UUID) ([]*entity.ChatMessage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := r.store.Messages[appointmentId]
	result := make([]*entity.ChatMessage, len(stored))
	for i, m := range stored {
		cp := *m
		result[i] = &cp
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].SentAt.Equal(result[j].SentAt) {
			return result[i].Seq < result[j].Seq
		}
		return result[i].SentAt.Before(result[j].SentAt)
	})
	return result, nil
}

func (r *inMemoryChatMessageRepo) CountByAppointment(ctx context.Context, appointmentId uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.Messages[appointmentId])), nil
}

type inMemoryAppointmentRepo struct {
	store *InMemoryStore
}

func (r *inMemoryAppointmentRepo) FindById(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.AppointmentLookups++
	appointment, ok := r.store.Appointments[id]
	if !ok {
		return nil, nil
	}
	cp := *appointment
	return &cp, nil
}

func (r *inMemoryAppointmentRepo) Create(ctx context.Context, appointment *entity.Appointment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if appointment.Id == uuid.Nil {
		appointment.Id = uuid.New()
	}
	cp := *appointment
	r.store.Appointments[appointment.Id] = &cp
	return nil
}

type inMemoryParticipantRepo struct {
	store *InMemoryStore
}

func (r *inMemoryParticipantRepo) FindById(ctx context.Context, id uuid.UUID) (*entity.Participant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	participant, ok := r.store.Participants[id]
	if !ok {
		return nil, nil
	}
	cp := *participant
	return &cp, nil
}

func (r *inMemoryParticipantRepo) Create(ctx context.Context, participant *entity.Participant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if participant.Id == uuid.Nil {
		participant.Id = uuid.New()
	}
	cp := *participant
	r.store.Participants[participant.Id] = &cp
	return nil
}

type inMemoryChatAuditRepo struct {
	store *InMemoryStore
}

func (r *inMemoryChatAuditRepo) Create(ctx context.Context, log *model.ChatAuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *log
	r.store.AuditLogs = append(r.store.AuditLogs, &cp)
	return nil
}

// MockPublisher records chat domain events instead of publishing.
type MockPublisher struct {
	mu         sync.Mutex
	Events     []dto.ChatMessagePersistedEvent
	JoinEvents []dto.ChatRoomJoinedEvent
}

func (p *MockPublisher) PublishMessagePersisted(ctx context.Context, event dto.ChatMessagePersistedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return nil
}

func (p *MockPublisher) PublishRoomJoined(ctx context.Context, event dto.ChatRoomJoinedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.JoinEvents = append(p.JoinEvents, event)
	return nil
}

func (p *MockPublisher) EventCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Events)
}

func (p *MockPublisher) JoinEventCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.JoinEvents)
}
