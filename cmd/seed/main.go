package main

import (
	"flag"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/medsync/scheduling/internal/schedule"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	log.Info().Msg("seed starting")

	var (
		dataFile = flag.String("file", "schedule_data.json", "schedule data file to write")
		days     = flag.Int("days", 7, "number of days to seed, starting today")
		fill     = flag.Int("fill", 45, "percentage of slots to book per day")
	)
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	store := schedule.NewStore(schedule.Options{
		DataFile: *dataFile,
		Policy:   schedule.PolicyLenient,
		Logger:   log,
	})

	conditions := []string{
		"Hypertension follow-up",
		"Seasonal allergies",
		"Back pain",
		"Annual physical",
		"Migraine",
		"Diabetes check",
		"Flu symptoms",
		"Lab results review",
		"Knee injury",
		"Skin rash",
	}

	doctors := schedule.Doctors()
	visitTypes := schedule.VisitTypes
	statuses := schedule.Statuses

	booked := 0
	start := time.Now()
	for i := 0; i < *days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		for _, slot := range schedule.SlotKeys() {
			if gofakeit.Number(0, 99) >= *fill {
				continue
			}

			patient := schedule.Patient{
				Name:        gofakeit.Name(),
				Condition:   conditions[gofakeit.Number(0, len(conditions)-1)],
				Phone:       gofakeit.Phone(),
				Email:       gofakeit.Email(),
				DateOfBirth: gofakeit.DateRange(
					time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC),
				).Format("2006-01-02"),
				Address:   gofakeit.Address().Address,
				VisitType: visitTypes[gofakeit.Number(0, len(visitTypes)-1)].ID,
				Status:    statuses[gofakeit.Number(0, len(statuses)-1)].ID,
			}
			doctor := doctors[gofakeit.Number(0, len(doctors)-1)].ID

			if _, err := store.Book(date, slot, patient, doctor); err != nil {
				log.Fatal().Err(err).Str("date", date).Str("slot", slot).Msg("seed booking failed")
			}
			booked++
		}
		log.Info().Str("date", date).Msg("day seeded")
	}

	log.Info().Int("appointments", booked).Int("days", *days).Msg("seed complete")
}
