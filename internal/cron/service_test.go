package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/colmena-app/colmena-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

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

func testServiceLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	registry := NewRegistry(&testJob{name: "success"}, &testJob{name: "fail", err: errors.New("boom")})
	service, err := NewService(ServiceParams{
		Logger:   testServiceLogger(),
		Registry: registry,
		Lock:     &fakeLock{},
		Interval: 0,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx := context.Background()
	if err := service.runCycle(ctx); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	for i, job := range registry.Jobs() {
		typed, ok := job.(*testJob)
		if !ok {
			t.Fatalf("job %d type mismatch", i)
		}
		if typed.runs != 1 {
			t.Fatalf("expected job %q to run once, ran %d", typed.name, typed.runs)
		}
	}
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	job := &testJob{name: "only"}
	lock := &fakeLock{acquired: true}
	service, err := NewService(ServiceParams{
		Logger:   testServiceLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job should not run while the lock is held elsewhere")
	}
}
