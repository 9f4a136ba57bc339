package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	"clinic-scheduling/internal/auth"
	"clinic-scheduling/internal/configs"
	"clinic-scheduling/internal/database"
	"clinic-scheduling/internal/scheduling"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

var (
	configPath = flag.String("config", "", "Config file path")
	therapists = flag.Int("therapists", 5, "Number of therapists to seed")
	patients   = flag.Int("patients", 50, "Number of patients to seed")
	days       = flag.Int("days", 14, "Number of upcoming days to fill with appointments")
)

var specialties = []string{
	"Speech Therapy",
	"Occupational Therapy",
	"Psychology",
	"Physiotherapy",
	"Psychopedagogy",
}

var appointmentTypes = []scheduling.AppointmentType{
	scheduling.TypeSession,
	scheduling.TypeEvaluation,
	scheduling.TypeFollowUp,
	scheduling.TypeParentMeeting,
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	flag.Parse()
	if *configPath == "" {
		log.Fatal("no config file path was given")
	}

	config := configs.MustLoad(*configPath)
	dbConn, err := database.NewConnection(config)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer dbConn.Close()

	gofakeit.Seed(time.Now().UnixNano())
	ctx := context.Background()

	therapistIDs, err := seedTherapists(ctx, dbConn.DB(), *therapists)
	if err != nil {
		log.Fatalf("seed therapists: %v", err)
	}
	patientIDs, patientNames, err := seedPatients(ctx, dbConn.DB(), *patients)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err = seedAppointments(ctx, dbConn.DB(), therapistIDs, patientIDs, patientNames, *days); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedTherapists(ctx context.Context, db *sql.DB, count int) (map[int64]string, error) {
	log.Printf("seeding %d therapists", count)
	ids := make(map[int64]string, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		email := gofakeit.Email()
		passHash, err := auth.EncryptPassword(gofakeit.Password(true, true, true, false, false, 12))
		if err != nil {
			return nil, err
		}
		var userID int64
		err = db.QueryRowContext(ctx, "INSERT INTO tb_user (uuid, email, password, role) VALUES ($1, $2, $3, $4) RETURNING id", uuid.New(), email, passHash, auth.TherapistRole).Scan(&userID)
		if err != nil {
			return nil, err
		}
		var therapistID int64
		specialty := specialties[gofakeit.Number(0, len(specialties)-1)]
		err = db.QueryRowContext(ctx, "INSERT INTO tb_therapist (uuid, user_id, name, email, specialty) VALUES ($1, $2, $3, $4, $5) RETURNING id", uuid.New(), userID, name, email, specialty).Scan(&therapistID)
		if err != nil {
			return nil, err
		}
		ids[therapistID] = name
	}
	return ids, nil
}

func seedPatients(ctx context.Context, db *sql.DB, count int) ([]int64, map[int64]string, error) {
	log.Printf("seeding %d patients", count)
	ids := make([]int64, 0, count)
	names := make(map[int64]string, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		var patientID int64
		err := db.QueryRowContext(ctx, "INSERT INTO tb_patient (uuid, name, email, mobile_phone) VALUES ($1, $2, $3, $4) RETURNING id", uuid.New(), name, gofakeit.Email(), gofakeit.Phone()).Scan(&patientID)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, patientID)
		names[patientID] = name
	}
	return ids, names, nil
}

// seedAppointments fills a handful of morning and afternoon slots per therapist per
// day, leaving the rest of the grid free for manual testing.
func seedAppointments(ctx context.Context, db *sql.DB, therapists map[int64]string, patientIDs []int64, patientNames map[int64]string, days int) error {
	log.Printf("seeding appointments over %d days", days)
	const insertQuery = "INSERT INTO tb_appointment (uuid, therapist_id, therapist_name, patient_id, patient_name, date_time, duration_minutes, type, status, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)"

	now := time.Now()
	total := 0
	for therapistID, therapistName := range therapists {
		for day := 0; day < days; day++ {
			date := now.AddDate(0, 0, day)
			if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
				continue
			}
			for _, hour := range []int{9, 11, 14, 16} {
				if gofakeit.Bool() {
					continue
				}
				patientID := patientIDs[gofakeit.Number(0, len(patientIDs)-1)]
				dateTime := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
				appointmentType := appointmentTypes[gofakeit.Number(0, len(appointmentTypes)-1)]
				status := scheduling.StatusScheduled
				if gofakeit.Bool() {
					status = scheduling.StatusConfirmed
				}
				_, err := db.ExecContext(ctx, insertQuery, uuid.New(), therapistID, therapistName, patientID, patientNames[patientID], dateTime, 50, appointmentType, status, nil, now)
				if err != nil {
					return fmt.Errorf("insert appointment: %w", err)
				}
				total++
			}
		}
	}
	log.Printf("appointments seeded: %d", total)
	return nil
}
