package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/clinicvoice/voice-scheduling/internal/db"
)

// Seeds the demo clinic: three doctors with Mon-Fri 09:00-17:00 hours, two
// known patients, one booked appointment, plus a batch of generated
// patients. Idempotent: does nothing when doctors already exist.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	extraPatients := flag.Int("patients", 200, "number of generated patients")
	flag.Parse()

	_ = godotenv.Load()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	seedCtx := context.Background()

	empty, err := doctorsTableEmpty(seedCtx, pool)
	if err != nil {
		log.Fatalf("check doctors: %v", err)
	}
	if !empty {
		log.Println("doctors already present, nothing to do")
		return
	}

	if err := seedDemoClinic(seedCtx, pool); err != nil {
		log.Fatalf("seed demo clinic: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())
	if err := seedGeneratedPatients(seedCtx, pool, *extraPatients); err != nil {
		log.Fatalf("seed generated patients: %v", err)
	}

	log.Println("seed complete")
}

func doctorsTableEmpty(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM doctors)`).Scan(&exists)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

type demoDoctor struct {
	name      string
	specialty string
	gender    string
	language  string
}

func seedDemoClinic(ctx context.Context, pool *pgxpool.Pool) error {
	doctors := []demoDoctor{
		{"Dr Sarah", "General", "Female", "English, Arabic"},
		{"Dr Ali", "Cardiology", "Male", "English"},
		{"Dr Omar", "General", "Male", "English, Urdu"},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	doctorIDs := make([]uuid.UUID, 0, len(doctors))
	for _, d := range doctors {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, gender, language, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, d.name, d.specialty, d.gender, d.language)
		if err != nil {
			return err
		}
		doctorIDs = append(doctorIDs, id)
	}

	// Mon-Fri 09:00-17:00 for every demo doctor.
	for _, doctorID := range doctorIDs {
		for day := 0; day < 5; day++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO doctor_working_hours (id, doctor_id, day_of_week, start_time, end_time)
				VALUES ($1, $2, $3, '09:00', '17:00')
			`, uuid.New(), doctorID, day)
			if err != nil {
				return err
			}
		}
	}

	patient1 := uuid.New()
	patient2 := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO patients (id, name, phone, email, created_at, updated_at)
		VALUES
			($1, 'Ahmed Ali', '+971500000001', 'ahmed@example.com', now(), now()),
			($2, 'Fatima Khan', '+971500000002', 'fatima@example.com', now(), now())
	`, patient1, patient2)
	if err != nil {
		return err
	}

	// One booked demo appointment for the first doctor.
	now := time.Now().Truncate(time.Minute)
	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, patient_name, patient_phone, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'Ahmed Ali', '+971500000001', $4, $5, 'BOOKED', now(), now())
	`, uuid.New(), patient1, doctorIDs[0], now, now.Add(30*time.Minute))
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("demo clinic seeded: %d doctors", len(doctors))
	return nil
}

func seedGeneratedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d generated patients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, phone, email, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
				ON CONFLICT (phone) DO NOTHING
			`, uuid.New(), gofakeit.Name(), gofakeit.Phone(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	return nil
}
