// Command roomcheck validates the rooms catalog and, with -fetch, pulls every
// active room's calendar from the booking-data service to make sure it parses.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"innkeeper/internal/availability"
	"innkeeper/internal/calendarapi"
	"innkeeper/internal/catalog"
	"innkeeper/internal/config"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	var (
		configPath = flag.String("config", config.PathFromEnv(), "path to config.yaml")
		roomsPath  = flag.String("rooms", "", "path to rooms.yaml (defaults to catalog.rooms_file)")
		fetch      = flag.Bool("fetch", false, "fetch and parse each active room's calendar")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := *roomsPath
	if path == "" {
		path = cfg.Catalog.RoomsFile
	}

	rooms, err := catalog.Load(path)
	if err != nil {
		return err
	}
	var active []models.Room
	for _, r := range catalog.NewStore(rooms).Rooms() {
		if r.IsActive {
			active = append(active, r)
		}
	}
	fmt.Printf("rooms: total=%d active=%d\n", len(rooms), len(active))

	if !*fetch {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := calendarapi.NewClient(cfg.Calendar, &logger)
	evaluator := availability.NewEvaluator(cfg.Rules.Availability())

	failed := 0
	for _, room := range active {
		raw, err := client.GetBookedDates(ctx, room.ID)
		if err != nil {
			fmt.Printf("%s: fetch failed: %v\n", room.ID, err)
			failed++
			continue
		}
		cal, err := availability.ParseCalendar(raw)
		if err != nil {
			fmt.Printf("%s: malformed calendar: %v\n", room.ID, err)
			failed++
			continue
		}
		fmt.Printf("%s: check-ins=%d time-ranges=%d blocked-regular=%d blocked-hourly=%d\n",
			room.ID,
			len(cal.CheckIns()),
			len(cal.TimeRanges()),
			len(evaluator.BlockedDatesRegular(cal)),
			len(availability.BlockedDatesHourly(cal)),
		)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d rooms failed", failed, len(active))
	}
	fmt.Println("done")
	return nil
}
