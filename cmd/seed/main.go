package main

import (
	"context"
	"log"
	"os"
	"time"

	"telemed-chat-be/internal/entity"
	"telemed-chat-be/internal/repository/unitofwork"
	"telemed-chat-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

// Seeds one patient, one doctor and an appointment between them so the
// chat relay can be exercised locally. Booking itself lives in another
// service; this stands in for it during development.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	color.Cyan("Seeding chat development data")

	patient := &entity.Participant{
		Name:  "Pat Smith",
		Email: "patient@example.com",
		Role:  entity.RolePatient,
	}
	if err := uow.ParticipantRepository().Create(ctx, patient); err != nil {
		color.Red("Failed to create patient: %v", err)
		os.Exit(1)
	}
	color.Green("Patient:     %s", patient.Id)

	doctor := &entity.Participant{
		Name:  "Dr. Lee",
		Email: "doctor@example.com",
		Role:  entity.RoleDoctor,
	}
	if err := uow.ParticipantRepository().Create(ctx, doctor); err != nil {
		color.Red("Failed to create doctor: %v", err)
		os.Exit(1)
	}
	color.Green("Doctor:      %s", doctor.Id)

	appointment := &entity.Appointment{
		PatientId:   patient.Id,
		DoctorId:    doctor.Id,
		ScheduledAt: time.Now().Add(24 * time.Hour),
	}
	if err := uow.AppointmentRepository().Create(ctx, appointment); err != nil {
		color.Red("Failed to create appointment: %v", err)
		os.Exit(1)
	}
	color.Green("Appointment: %s", appointment.Id)

	color.Cyan("Done. Use these ids with the ws client and history endpoint.")
}
