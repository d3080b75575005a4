package service

import (
	"context"

	"telemed-chat-be/internal/dto"
	"telemed-chat-be/internal/pkg/apperror"
	"telemed-chat-be/internal/repository/memory"
	"telemed-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IAppointmentAuthService decides whether a participant is a party to an
// appointment. It is the single authorization gate for room joins and
// history reads.
type IAppointmentAuthService interface {
	// Authorize succeeds iff the appointment exists and the participant is
	// its patient or assigned doctor.
	Authorize(ctx context.Context, appointmentId, participantId uuid.UUID) (*dto.AppointmentSummary, error)

	// Resolve loads the appointment summary without a party check.
	Resolve(ctx context.Context, appointmentId uuid.UUID) (*dto.AppointmentSummary, error)
}

type appointmentAuthService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.AuthorizationCache

	// allowCancelledChat: a cancelled appointment still permits chat.
	// Deliberate product policy, surfaced as config so it can be flipped.
	allowCancelledChat bool
}

func NewAppointmentAuthService(
	uowFactory unitofwork.RepositoryFactory,
	cache *memory.AuthorizationCache,
	allowCancelledChat bool,
) IAppointmentAuthService {
	return &appointmentAuthService{
		uowFactory:         uowFactory,
		cache:              cache,
		allowCancelledChat: allowCancelledChat,
	}
}

func (s *appointmentAuthService) Resolve(ctx context.Context, appointmentId uuid.UUID) (*dto.AppointmentSummary, error) {
	appointment, found := s.cache.Get(appointmentId)
	if !found {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		loaded, err := uow.AppointmentRepository().FindById(ctx, appointmentId)
		if err != nil {
			return nil, apperror.NewStore("failed to load appointment", err)
		}
		if loaded == nil {
			return nil, apperror.NewNotFound("Appointment not found")
		}
		s.cache.Set(loaded)
		appointment = loaded
	}

	return &dto.AppointmentSummary{
		Id:        appointment.Id,
		PatientId: appointment.PatientId,
		DoctorId:  appointment.DoctorId,
		Cancelled: appointment.Cancelled,
	}, nil
}

func (s *appointmentAuthService) Authorize(ctx context.Context, appointmentId, participantId uuid.UUID) (*dto.AppointmentSummary, error) {
	summary, err := s.Resolve(ctx, appointmentId)
	if err != nil {
		return nil, err
	}

	if summary.PatientId != participantId && summary.DoctorId != participantId {
		return nil, apperror.NewForbidden("Not authorized for this chat room")
	}

	if summary.Cancelled && !s.allowCancelledChat {
		return nil, apperror.NewForbidden("Chat is closed for cancelled appointments")
	}

	return summary, nil
}
