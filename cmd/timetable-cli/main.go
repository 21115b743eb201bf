// Command timetable-cli generates a weekly timetable from a CSV course
// roster and writes the result as JSON, CSV, or PDF.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/unisched/timetable-api/internal/csvio"
	"github.com/unisched/timetable-api/internal/dto"
	"github.com/unisched/timetable-api/internal/engine"
	"github.com/unisched/timetable-api/internal/service"
)

func main() {
	var (
		coursesPath = flag.String("courses", "courses.csv", "path to the course roster CSV")
		format      = flag.String("format", "json", "output format: json, csv, or pdf")
		outPath     = flag.String("out", "", "output file (default stdout; required for pdf)")
		startHour   = flag.Int("start-hour", engine.DefaultStartHour, "first operating hour of each day")
		endHour     = flag.Int("end-hour", engine.DefaultEndHour, "hour at which each day ends (exclusive)")
		maxSteps    = flag.Int("max-steps", engine.DefaultMaxSteps, "exact search step budget")
		splitOrder  = flag.String("split-order", "fixed", "split day order: fixed or spread")
		timeout     = flag.Duration("timeout", 30*time.Second, "solver wall-clock budget")
	)
	flag.Parse()

	if err := run(*coursesPath, *format, *outPath, engine.Config{
		StartHour:  *startHour,
		EndHour:    *endHour,
		MaxSteps:   *maxSteps,
		SplitOrder: engine.ParseSplitOrder(*splitOrder),
	}, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "timetable-cli: %v\n", err)
		os.Exit(1)
	}
}

func run(coursesPath, format, outPath string, engineCfg engine.Config, timeout time.Duration) error {
	courses, err := csvio.LoadCourses(coursesPath)
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		return fmt.Errorf("no courses in %s", coursesPath)
	}

	svc, err := service.NewScheduleService(engineCfg, nil, nil, nil, nil, nil, nil, nil, service.ScheduleServiceOptions{
		ProposalTTL:  time.Hour,
		SolveTimeout: timeout,
	})
	if err != nil {
		return err
	}

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{Courses: courses})
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "json":
		if data, err = json.MarshalIndent(resp, "", "  "); err != nil {
			return err
		}
		data = append(data, '\n')
	case "csv":
		if data, err = svc.ExportCSV(resp.ProposalID); err != nil {
			return err
		}
	case "pdf":
		if outPath == "" {
			return fmt.Errorf("pdf output requires -out")
		}
		if data, err = svc.ExportPDF(resp.ProposalID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	fmt.Fprintf(os.Stderr, "scheduled %d/%d courses (%s) in %s\n",
		resp.ScheduledCount, resp.TotalCount, resp.Status, resp.Stats.SolveTime)

	if outPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
