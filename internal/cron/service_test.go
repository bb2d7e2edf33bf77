package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
)

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type recordedJob struct {
	name string
	err  error
}

type fakeRecorder struct {
	jobs []recordedJob
}

func (f *fakeRecorder) ObserveJob(job string, duration time.Duration, err error) {
	f.jobs = append(f.jobs, recordedJob{name: job, err: err})
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "housekeeping-test", Output: io.Discard})
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "success"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	recorder := &fakeRecorder{}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(ok, failing),
		Metrics:  recorder,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	service.runCycle(context.Background())

	if ok.runs != 1 || failing.runs != 1 {
		t.Fatalf("expected each job once, got %d and %d", ok.runs, failing.runs)
	}
	if len(recorder.jobs) != 2 || recorder.jobs[1].err == nil {
		t.Fatalf("unexpected recorded jobs %+v", recorder.jobs)
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "tick"}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Interval: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := service.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if job.runs == 0 {
		t.Fatal("expected at least one tick")
	}
}

func TestNewServiceRequiresLogger(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error without logger")
	}
}
