package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/samber/lo"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
	"github.com/noah-isme/tutor-allocation-api/internal/service"
	"github.com/noah-isme/tutor-allocation-api/pkg/config"
)

// CLI is the allocctl command tree.
type CLI struct {
	Version kong.VersionFlag `help:"Print version."`
	Input   string           `short:"i" help:"Snapshot JSON file, '-' for stdin." default:"-"`

	Plan     PlanCmd     `cmd:"" help:"Dry-run an allocation for every waiting student."`
	Summary  SummaryCmd  `cmd:"" help:"Print allocation coverage and tutor utilization."`
	Conflict ConflictCmd `cmd:"" help:"Check a proposed class slot."`
}

// RunContext is handed to every command.
type RunContext struct {
	Input string
	Out   io.Writer
	Stdin io.Reader
	Now   func() time.Time
}

func newRunContext(input string, out io.Writer) *RunContext {
	return &RunContext{Input: input, Out: out, Stdin: os.Stdin, Now: time.Now}
}

func (ctx *RunContext) snapshot() (*models.AllocationSnapshot, error) {
	return loadSnapshot(ctx.Input, ctx.Stdin)
}

// PlanCmd dry-runs an allocation over the snapshot.
type PlanCmd struct {
	Capacity      int  `help:"Maximum active classes per tutor." default:"8"`
	MaxCandidates int  `name:"max-candidates" help:"Ranked tutors considered per student." default:"3"`
	Parallel      bool `help:"Score candidates concurrently."`
}

// Run prints the allocation plan as JSON.
func (c *PlanCmd) Run(ctx *RunContext) error {
	snapshot, err := ctx.snapshot()
	if err != nil {
		return err
	}

	tutors := activeTutors(snapshot.Tutors)
	engine := service.NewAllocationEngine(
		service.NewCompatibilityScorer(config.DefaultWeights()),
		service.AllocationEngineConfig{Capacity: c.Capacity, MaxCandidates: c.MaxCandidates, ParallelScoring: c.Parallel},
	)
	waiting := service.WaitingOrder(service.UnallocatedStudents(snapshot.Students, snapshot.Commitments))
	plan := engine.Plan(waiting, tutors, service.ActiveLoadByTutor(snapshot.Commitments))
	return writeJSON(ctx.Out, plan)
}

// SummaryCmd reports allocation coverage for the snapshot.
type SummaryCmd struct {
	Capacity    int           `help:"Maximum active classes per tutor." default:"8"`
	UrgentAfter time.Duration `name:"urgent-after" help:"Waiting time after which a student is urgent." default:"120h"`
}

// Run prints the allocation summary as JSON.
func (c *SummaryCmd) Run(ctx *RunContext) error {
	snapshot, err := ctx.snapshot()
	if err != nil {
		return err
	}
	analytics := service.NewAllocationAnalytics(c.Capacity, c.UrgentAfter)
	summary := analytics.Summarize(snapshot.Students, snapshot.Commitments, activeTutors(snapshot.Tutors), ctx.Now().UTC())
	return writeJSON(ctx.Out, summary)
}

// ConflictCmd checks one proposed class slot against the snapshot.
type ConflictCmd struct {
	Tutor    string   `required:"" help:"Tutor id."`
	Students []string `name:"student" help:"Student id, repeatable."`
	Date     string   `required:"" help:"Class date (YYYY-MM-DD)."`
	Start    string   `required:"" help:"Start time, e.g. 16:30 or 4:30 PM."`
	Duration int      `default:"60" help:"Duration in minutes."`
	Exclude  string   `help:"Commitment id to ignore, for reschedules."`
}

type conflictReport struct {
	HasConflict bool              `json:"has_conflict"`
	Conflicts   []models.Conflict `json:"conflicts"`
}

// Run prints the conflicts the slot would hit.
func (c *ConflictCmd) Run(ctx *RunContext) error {
	snapshot, err := ctx.snapshot()
	if err != nil {
		return err
	}
	date, err := time.Parse("2006-01-02", c.Date)
	if err != nil {
		return fmt.Errorf("invalid date %q, use YYYY-MM-DD: %w", c.Date, err)
	}
	if !models.EndsSameDay(c.Start, c.Duration) {
		return fmt.Errorf("class starting at %s for %d minutes runs past midnight", c.Start, c.Duration)
	}
	tutor, ok := lo.Find(snapshot.Tutors, func(t models.Tutor) bool { return t.ID == c.Tutor })
	if !ok {
		return fmt.Errorf("tutor %q not found in snapshot", c.Tutor)
	}

	conflicts := service.NewConflictDetector().FindConflicts(models.SlotProposal{
		TutorID:         c.Tutor,
		Date:            date,
		StartTime:       c.Start,
		DurationMinutes: c.Duration,
		StudentIDs:      lo.Uniq(c.Students),
		ExcludeID:       c.Exclude,
	}, &tutor, snapshot.Commitments)
	if conflicts == nil {
		conflicts = []models.Conflict{}
	}
	return writeJSON(ctx.Out, conflictReport{HasConflict: len(conflicts) > 0, Conflicts: conflicts})
}

func loadSnapshot(path string, stdin io.Reader) (*models.AllocationSnapshot, error) {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}

	var snapshot models.AllocationSnapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snapshot, nil
}

func activeTutors(tutors []models.Tutor) []models.Tutor {
	return lo.Filter(tutors, func(t models.Tutor, _ int) bool { return t.Status == models.TutorActive })
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
