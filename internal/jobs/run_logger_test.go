package jobs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chr1sbest/jobrunlog/internal/fsys"
	"github.com/chr1sbest/jobrunlog/internal/tracker"
)

var scenarioStart = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func startRun(t *testing.T, root string, clock *fakeClock, opts ...Option) *RunLogger {
	t.Helper()
	opts = append([]Option{WithClock(clock.Now), WithInstanceID("abc123")}, opts...)
	l, err := StartNewRun("nightly-cleanup", Environment{JobsDataPath: root}, opts...)
	if err != nil {
		t.Fatalf("StartNewRun error: %v", err)
	}
	return l
}

func readStatus(t *testing.T, l *RunLogger) tracker.RunStatus {
	t.Helper()
	rs, err := tracker.NewStore(fsys.NewOS()).ReadStatus(filepath.Join(l.HistoryPath(), tracker.StatusFileName))
	if err != nil {
		t.Fatalf("ReadStatus error: %v", err)
	}
	return *rs
}

func readLog(t *testing.T, l *RunLogger, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(l.HistoryPath(), name))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}

func TestStartNewRunScenario(t *testing.T) {
	root := t.TempDir()
	clock := newFakeClock(scenarioStart)
	l := startRun(t, root, clock)

	if l.ID() != "20240102030405" {
		t.Errorf("ID = %q, want 20240102030405", l.ID())
	}
	wantDir := filepath.Join(root, "triggered", "nightly-cleanup", "20240102030405")
	if l.HistoryPath() != wantDir {
		t.Errorf("HistoryPath = %q, want %q", l.HistoryPath(), wantDir)
	}
	if fi, err := os.Stat(wantDir); err != nil || !fi.IsDir() {
		t.Fatalf("run directory missing: %v", err)
	}

	rs := readStatus(t, l)
	if rs.Status != tracker.StatusInitializing {
		t.Errorf("status = %q, want Initializing", rs.Status)
	}
	if !rs.StartTime.Equal(scenarioStart) {
		t.Errorf("startTime = %v, want %v", rs.StartTime, scenarioStart)
	}
	if rs.EndTime != nil {
		t.Errorf("endTime = %v, want unset", rs.EndTime)
	}

	if !l.LogStandardOutput("done") {
		t.Error("LogStandardOutput returned false")
	}
	if out := readLog(t, l, tracker.OutputFileName); !strings.Contains(out, "[2024-01-02T03:04:05Z] done\r\n") {
		t.Errorf("output.log = %q", out)
	}
}

func TestStartNewRunCreatesOneDirectory(t *testing.T) {
	root := t.TempDir()
	startRun(t, root, newFakeClock(scenarioStart))

	entries, err := os.ReadDir(filepath.Join(root, "triggered", "nightly-cleanup"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 run directory, got %d", len(entries))
	}
}

func TestPlainLinesUseCallTime(t *testing.T) {
	clock := newFakeClock(scenarioStart)
	l := startRun(t, t.TempDir(), clock)

	clock.Advance(7 * time.Second)
	l.LogStandardOutput("done")
	l.LogStandardError("oops")

	if out := readLog(t, l, tracker.OutputFileName); !strings.HasSuffix(out, "[2024-01-02T03:04:12Z] done\r\n") {
		t.Errorf("output.log = %q", out)
	}
	if errLog := readLog(t, l, tracker.ErrorFileName); errLog != "[2024-01-02T03:04:12Z] oops\r\n" {
		t.Errorf("error.log = %q", errLog)
	}
}

func TestReportStatusKeepsStartTime(t *testing.T) {
	clock := newFakeClock(scenarioStart)
	l := startRun(t, t.TempDir(), clock)

	clock.Advance(time.Minute)
	if err := l.ReportStatus(tracker.StatusRunning); err != nil {
		t.Fatalf("ReportStatus error: %v", err)
	}

	rs := readStatus(t, l)
	if rs.Status != tracker.StatusRunning {
		t.Errorf("status = %q, want Running", rs.Status)
	}
	if !rs.StartTime.Equal(scenarioStart) {
		t.Errorf("startTime changed to %v", rs.StartTime)
	}
	if rs.EndTime != nil {
		t.Errorf("endTime = %v, want unset", rs.EndTime)
	}
}

func TestReportStatusTwiceKeepsOneRecord(t *testing.T) {
	l := startRun(t, t.TempDir(), newFakeClock(scenarioStart))

	for _, s := range []string{"Running", "Running"} {
		if err := l.ReportStatus(s); err != nil {
			t.Fatalf("ReportStatus error: %v", err)
		}
	}

	b, err := os.ReadFile(filepath.Join(l.HistoryPath(), tracker.StatusFileName))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(b), `"status"`); n != 1 {
		t.Errorf("status file holds %d records: %s", n, b)
	}
	if rs := readStatus(t, l); rs.Status != "Running" {
		t.Errorf("status = %q", rs.Status)
	}
}

func TestReportStatusAcceptsCustomText(t *testing.T) {
	l := startRun(t, t.TempDir(), newFakeClock(scenarioStart))
	if err := l.ReportStatus("Waiting for lease"); err != nil {
		t.Fatal(err)
	}
	if rs := readStatus(t, l); rs.Status != "Waiting for lease" {
		t.Errorf("status = %q", rs.Status)
	}
	if out := readLog(t, l, tracker.OutputFileName); !strings.Contains(out, "SYS INFO] Status changed to Waiting for lease\r\n") {
		t.Errorf("status change not echoed to output.log: %q", out)
	}
}

func TestReportEndRun(t *testing.T) {
	clock := newFakeClock(scenarioStart)
	l := startRun(t, t.TempDir(), clock)

	clock.Advance(90 * time.Second)
	if err := l.ReportEndRun(); err != nil {
		t.Fatalf("ReportEndRun error: %v", err)
	}

	rs := readStatus(t, l)
	if rs.EndTime == nil {
		t.Fatal("endTime not set")
	}
	if rs.EndTime.Before(rs.StartTime) {
		t.Errorf("endTime %v before startTime %v", rs.EndTime, rs.StartTime)
	}
	if !rs.EndTime.Equal(scenarioStart.Add(90 * time.Second)) {
		t.Errorf("endTime = %v", rs.EndTime)
	}
	if rs.Status != tracker.StatusInitializing {
		t.Errorf("status = %q, want unchanged Initializing", rs.Status)
	}
}

func TestLogErrorMarksFailed(t *testing.T) {
	l := startRun(t, t.TempDir(), newFakeClock(scenarioStart))

	if err := l.LogError("exit status 3"); err != nil {
		t.Fatalf("LogError error: %v", err)
	}

	if rs := readStatus(t, l); rs.Status != tracker.StatusFailed {
		t.Errorf("status = %q, want Failed", rs.Status)
	}
	errLog := readLog(t, l, tracker.ErrorFileName)
	lines := strings.Split(strings.TrimSuffix(errLog, "\r\n"), "\r\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 error line, got %d: %q", len(lines), errLog)
	}
	want := "[2024-01-02T03:04:05Z > abc123: SYS ERR] exit status 3"
	if lines[0] != want {
		t.Errorf("error line = %q, want %q", lines[0], want)
	}
}

func TestWarningAndInformationRouting(t *testing.T) {
	l := startRun(t, t.TempDir(), newFakeClock(scenarioStart))

	l.LogWarning("slow disk")
	l.LogInformation("processed 10 items")

	errLog := readLog(t, l, tracker.ErrorFileName)
	if errLog != "[2024-01-02T03:04:05Z > abc123: SYS WARN] slow disk\r\n" {
		t.Errorf("error.log = %q", errLog)
	}
	out := readLog(t, l, tracker.OutputFileName)
	if !strings.HasSuffix(out, "[2024-01-02T03:04:05Z > abc123: SYS INFO] processed 10 items\r\n") {
		t.Errorf("output.log = %q", out)
	}
	if rs := readStatus(t, l); rs.Status != tracker.StatusInitializing {
		t.Errorf("status touched by warning/info: %q", rs.Status)
	}
}

func TestStandardStreamsSucceedWhenAppendFails(t *testing.T) {
	fs := &flakyFS{}
	trace, tracer := newTraceBuffer()
	l := startRun(t, t.TempDir(), newFakeClock(scenarioStart), WithFileSystem(fs), WithTracer(tracer))

	fs.failAppend = true
	if !l.LogStandardOutput("out") {
		t.Error("LogStandardOutput returned false on append failure")
	}
	if !l.LogStandardError("err") {
		t.Error("LogStandardError returned false on append failure")
	}
	l.LogWarning("warn")
	l.LogInformation("info")

	if !strings.Contains(trace.String(), "failed to append to job log") {
		t.Errorf("append failure not traced: %q", trace.String())
	}
	if !strings.Contains(trace.String(), errDiskFull.Error()) {
		t.Errorf("trace missing cause: %q", trace.String())
	}
}

func TestLogErrorStillUpdatesStatusWhenAppendFails(t *testing.T) {
	fs := &flakyFS{}
	l := startRun(t, t.TempDir(), newFakeClock(scenarioStart), WithFileSystem(fs))

	fs.failAppend = true
	if err := l.LogError("boom"); err != nil {
		t.Fatalf("LogError error: %v", err)
	}
	if rs := readStatus(t, l); rs.Status != tracker.StatusFailed {
		t.Errorf("status = %q, want Failed", rs.Status)
	}
}

func TestStatusWriteFailurePropagates(t *testing.T) {
	fs := &flakyFS{}
	l := startRun(t, t.TempDir(), newFakeClock(scenarioStart), WithFileSystem(fs))

	fs.failWrite = true
	if err := l.ReportStatus(tracker.StatusRunning); !errors.Is(err, errDiskFull) {
		t.Errorf("ReportStatus err = %v, want disk full", err)
	}
	if err := l.ReportEndRun(); !errors.Is(err, errDiskFull) {
		t.Errorf("ReportEndRun err = %v, want disk full", err)
	}
	if err := l.LogError("boom"); !errors.Is(err, errDiskFull) {
		t.Errorf("LogError err = %v, want disk full", err)
	}
	if errLog := readLog(t, l, tracker.ErrorFileName); !strings.Contains(errLog, "boom") {
		t.Errorf("error line not written when status write failed: %q", errLog)
	}
}

func TestStartNewRunDirectoryFailure(t *testing.T) {
	_, err := StartNewRun("nightly-cleanup", Environment{JobsDataPath: t.TempDir()},
		WithFileSystem(&flakyFS{failMkdir: true}))
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("err = %v, want disk full", err)
	}
}

func TestStartNewRunStatusWriteFailure(t *testing.T) {
	_, err := StartNewRun("nightly-cleanup", Environment{JobsDataPath: t.TempDir()},
		WithFileSystem(&flakyFS{failWrite: true}))
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("err = %v, want disk full", err)
	}
}

func TestStartNewRunValidation(t *testing.T) {
	tests := []struct {
		name string
		job  string
		env  Environment
		want error
	}{
		{"empty job", "", Environment{JobsDataPath: "/data"}, ErrInvalidJobName},
		{"blank job", "  ", Environment{JobsDataPath: "/data"}, ErrInvalidJobName},
		{"separator", "a/b", Environment{JobsDataPath: "/data"}, ErrInvalidJobName},
		{"parent", "..", Environment{JobsDataPath: "/data"}, ErrInvalidJobName},
		{"no data path", "job", Environment{}, ErrNoJobsDataPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := StartNewRun(tt.job, tt.env); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMissingStatusStartsFresh(t *testing.T) {
	l := startRun(t, t.TempDir(), newFakeClock(scenarioStart))
	if err := os.Remove(filepath.Join(l.HistoryPath(), tracker.StatusFileName)); err != nil {
		t.Fatal(err)
	}

	if err := l.ReportStatus(tracker.StatusRunning); err != nil {
		t.Fatalf("ReportStatus error: %v", err)
	}
	rs := readStatus(t, l)
	if rs.Status != tracker.StatusRunning {
		t.Errorf("status = %q", rs.Status)
	}
	if !rs.StartTime.IsZero() {
		t.Errorf("startTime = %v, want zero after status file loss", rs.StartTime)
	}
}

func TestCorruptStatusLenientAndStrict(t *testing.T) {
	corrupt := func(t *testing.T, l *RunLogger) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(l.HistoryPath(), tracker.StatusFileName), []byte("{"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("lenient", func(t *testing.T) {
		trace, tracer := newTraceBuffer()
		l := startRun(t, t.TempDir(), newFakeClock(scenarioStart), WithTracer(tracer))
		corrupt(t, l)
		if err := l.ReportStatus(tracker.StatusRunning); err != nil {
			t.Fatalf("ReportStatus error: %v", err)
		}
		if rs := readStatus(t, l); rs.Status != tracker.StatusRunning {
			t.Errorf("status = %q", rs.Status)
		}
		if !strings.Contains(trace.String(), "discarding unreadable run status") {
			t.Errorf("corruption not traced: %q", trace.String())
		}
	})

	t.Run("strict", func(t *testing.T) {
		l := startRun(t, t.TempDir(), newFakeClock(scenarioStart), WithStrictStatus(true))
		corrupt(t, l)
		if err := l.ReportStatus(tracker.StatusRunning); !errors.Is(err, tracker.ErrCorruptStatus) {
			t.Errorf("err = %v, want ErrCorruptStatus", err)
		}
	})
}

func TestSameSecondRunsGetDistinctDirectories(t *testing.T) {
	root := t.TempDir()
	clock := newFakeClock(scenarioStart)

	first := startRun(t, root, clock)
	second := startRun(t, root, clock)

	if first.ID() != "20240102030405" {
		t.Errorf("first ID = %q", first.ID())
	}
	if !strings.HasPrefix(second.ID(), "20240102030405_") || len(second.ID()) != len("20240102030405_")+8 {
		t.Errorf("second ID = %q, want suffixed id", second.ID())
	}
	if first.HistoryPath() == second.HistoryPath() {
		t.Error("runs share a directory")
	}
}

func TestSameSecondRunsShareDirectoryWithoutUniqueIDs(t *testing.T) {
	root := t.TempDir()
	clock := newFakeClock(scenarioStart)

	first := startRun(t, root, clock, WithUniqueRunIDs(false))
	second := startRun(t, root, clock, WithUniqueRunIDs(false))
	if first.ID() != second.ID() {
		t.Errorf("ids differ: %q vs %q", first.ID(), second.ID())
	}
}

func TestConcurrentStatusUpdatesAreSerialized(t *testing.T) {
	clock := newFakeClock(scenarioStart)
	l := startRun(t, t.TempDir(), clock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = l.ReportStatus(tracker.StatusRunning)
		}()
		go func() {
			defer wg.Done()
			l.LogStandardOutput("line")
		}()
	}
	wg.Wait()
	if err := l.ReportEndRun(); err != nil {
		t.Fatal(err)
	}

	rs := readStatus(t, l)
	if !rs.StartTime.Equal(scenarioStart) || rs.EndTime == nil || rs.Status != tracker.StatusRunning {
		t.Errorf("unexpected final status %+v", rs)
	}
}
