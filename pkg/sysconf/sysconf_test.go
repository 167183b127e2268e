package sysconf

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestParseActiveState(t *testing.T) {
	cases := []struct {
		out  string
		want State
	}{
		{"active\n", StateRunning},
		{"activating", StateRunning},
		{"reloading", StateRunning},
		{"inactive\n", StateStopped},
		{"failed", StateStopped},
		{"deactivating", StateStopped},
		{"", StateUnknown},
		{"garbage", StateUnknown},
	}

	for _, c := range cases {
		if got := parseActiveState(c.out); got != c.want {
			t.Errorf("parseActiveState(%q) = %v, want %v", c.out, got, c.want)
		}
	}
}

func TestArgsUserMode(t *testing.T) {
	s := New(WithUnit("gps.service"), WithUserMode(true))
	want := []string{"--user", "restart", "gps.service"}
	if got := s.args("restart"); !reflect.DeepEqual(got, want) {
		t.Fatalf("args() = %v, want %v", got, want)
	}

	s = New(WithUnit("gps.service"))
	want = []string{"restart", "gps.service"}
	if got := s.args("restart"); !reflect.DeepEqual(got, want) {
		t.Fatalf("args() = %v, want %v", got, want)
	}
}

func TestRestart(t *testing.T) {
	var gotName string
	var gotArgs []string
	s := New(
		WithUnit("gps.service"),
		WithUserMode(true),
		withRunner(func(ctx context.Context, name string, args ...string) (string, error) {
			gotName = name
			gotArgs = args
			return "", nil
		}),
	)

	if err := s.Restart(context.Background()); err != nil {
		t.Fatalf("Restart() error: %v", err)
	}
	if gotName != "systemctl" {
		t.Fatalf("Restart() ran %q, want systemctl", gotName)
	}
	want := []string{"--user", "restart", "gps.service"}
	if !reflect.DeepEqual(gotArgs, want) {
		t.Fatalf("Restart() args = %v, want %v", gotArgs, want)
	}
}

func TestRestartFailureWrapsErrRestartFailed(t *testing.T) {
	s := New(withRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		return "Failed to restart unit: access denied\n", errors.New("exit status 1")
	}))

	err := s.Restart(context.Background())
	if !errors.Is(err, ErrRestartFailed) {
		t.Fatalf("Restart() = %v, want ErrRestartFailed", err)
	}
}

func TestStatusNeverErrors(t *testing.T) {
	s := New(withRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		return "", context.DeadlineExceeded
	}))

	if got := s.Status(context.Background()); got != StateUnknown {
		t.Fatalf("Status() = %v, want StateUnknown", got)
	}

	s = New(withRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		return "inactive\n", errors.New("exit status 3")
	}))
	if got := s.Status(context.Background()); got != StateStopped {
		t.Fatalf("Status() = %v, want StateStopped", got)
	}
}
