package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
)

// dataFile is the write-through flat file behind a Store. Every mutation
// rewrites the whole file; there is no incremental diffing.
type dataFile struct {
	path          string
	backupCorrupt bool
	log           zerolog.Logger
}

// load reads the data file into a fully normalized schedule map. A missing
// file yields an empty map. A corrupt file is logged, optionally renamed
// aside, and also yields an empty map: the store stays available even when
// its history is lost.
func (f *dataFile) load() map[string]Schedule {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.log.Info().Str("file", f.path).Msg("no existing schedule file, starting fresh")
		} else {
			f.log.Warn().Err(err).Str("file", f.path).Msg("could not read schedule file, starting fresh")
		}
		return map[string]Schedule{}
	}

	var decoded map[string]map[string]*Appointment
	if err := json.Unmarshal(raw, &decoded); err != nil {
		f.log.Warn().Err(err).Str("file", f.path).Msg("schedule file is corrupt, starting fresh")
		f.backupAside()
		return map[string]Schedule{}
	}

	schedules := make(map[string]Schedule, len(decoded))
	for date, slots := range decoded {
		sched := newEmptySchedule()
		for slot, appt := range slots {
			// unknown slot keys and appointments without a patient are dropped
			if !ValidSlot(slot) || appt == nil || appt.Patient == nil {
				continue
			}
			sched[slot] = appt
		}
		schedules[date] = sched
	}

	f.log.Info().Int("dates", len(schedules)).Str("file", f.path).Msg("loaded schedules")
	return schedules
}

// save overwrites the data file with the full store contents.
func (f *dataFile) save(schedules map[string]Schedule) error {
	b, err := json.MarshalIndent(schedules, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schedule data: %w", err)
	}
	if err := os.WriteFile(f.path, b, 0o644); err != nil {
		return fmt.Errorf("write schedule file: %w", err)
	}
	return nil
}

// backupAside keeps a copy of an unparsable file before the next save
// overwrites it.
func (f *dataFile) backupAside() {
	if !f.backupCorrupt {
		return
	}
	backup := f.path + ".corrupt"
	if err := os.Rename(f.path, backup); err != nil {
		f.log.Warn().Err(err).Str("file", f.path).Msg("could not back up corrupt schedule file")
		return
	}
	f.log.Info().Str("backup", backup).Msg("backed up corrupt schedule file")
}
