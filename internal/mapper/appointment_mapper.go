package mapper

import (
	"time"

	"telemed-chat-be/internal/entity"
	"telemed-chat-be/internal/model"
)

type AppointmentMapper struct{}

func NewAppointmentMapper() *AppointmentMapper {
	return &AppointmentMapper{}
}

func (m *AppointmentMapper) AppointmentToEntity(r *model.Appointment) *entity.Appointment {
	if r == nil {
		return nil
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	return &entity.Appointment{
		Id:          r.Id,
		PatientId:   r.PatientId,
		DoctorId:    r.DoctorId,
		Cancelled:   r.Cancelled,
		ScheduledAt: r.ScheduledAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *AppointmentMapper) AppointmentToModel(e *entity.Appointment) *model.Appointment {
	if e == nil {
		return nil
	}

	r := &model.Appointment{
		Id:          e.Id,
		PatientId:   e.PatientId,
		DoctorId:    e.DoctorId,
		Cancelled:   e.Cancelled,
		ScheduledAt: e.ScheduledAt,
		CreatedAt:   e.CreatedAt,
	}
	if e.UpdatedAt != nil {
		r.UpdatedAt = *e.UpdatedAt
	}
	return r
}

func (m *AppointmentMapper) ParticipantToEntity(r *model.Participant) *entity.Participant {
	if r == nil {
		return nil
	}
	return &entity.Participant{
		Id:        r.Id,
		Name:      r.Name,
		Email:     r.Email,
		Role:      r.Role,
		CreatedAt: r.CreatedAt,
	}
}

func (m *AppointmentMapper) ParticipantToModel(e *entity.Participant) *model.Participant {
	if e == nil {
		return nil
	}
	return &model.Participant{
		Id:        e.Id,
		Name:      e.Name,
		Email:     e.Email,
		Role:      e.Role,
		CreatedAt: e.CreatedAt,
	}
}
