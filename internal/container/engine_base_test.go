// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"testing"
)

func newTestEngine(t *testing.T, recorder *MockCommandRecorder) *BaseCLIEngine {
	t.Helper()
	return NewBaseCLIEngine("docker",
		WithName("docker"),
		WithExecCommand(recorder.ExecCommand(t)),
	)
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("docker", WithName("docker"))

	tests := []struct {
		name string
		opts BuildOptions
		want []string
	}{
		{
			name: "context only",
			opts: BuildOptions{ContextDir: "/ctx"},
			want: []string{"build", "/ctx"},
		},
		{
			name: "dockerfile resolved against context",
			opts: BuildOptions{ContextDir: "/ctx", Dockerfile: "Dockerfile"},
			want: []string{"build", "-f", "/ctx/Dockerfile", "/ctx"},
		},
		{
			name: "tag and no-cache",
			opts: BuildOptions{ContextDir: "/ctx", Tag: "app:1", NoCache: true},
			want: []string{"build", "-t", "app:1", "--no-cache", "/ctx"},
		},
		{
			name: "build args sorted",
			opts: BuildOptions{
				ContextDir: "/ctx",
				BuildArgs:  map[string]string{"B": "2", "A": "1"},
			},
			want: []string{"build", "--build-arg", "A=1", "--build-arg", "B=2", "/ctx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := e.BuildArgs(tt.opts)
			if len(got) != len(tt.want) {
				t.Fatalf("BuildArgs() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("BuildArgs()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRunArgs(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("docker", WithName("docker"))

	opts := RunOptions{
		Image:       "pybox-build:abc123",
		Command:     []string{"src/app.py"},
		WorkDir:     "/app",
		Env:         map[string]string{"B": "2", "A": "1"},
		Volumes:     []string{"/host:/data"},
		Remove:      true,
		Name:        "pybox-run",
		Interactive: true,
		TTY:         true,
	}

	got := e.RunArgs(opts)
	want := []string{
		"run", "--rm", "--name", "pybox-run", "-w", "/app", "-i", "-t",
		"-e", "A=1", "-e", "B=2", "-v", "/host:/data",
		"pybox-build:abc123", "src/app.py",
	}

	if len(got) != len(want) {
		t.Fatalf("RunArgs() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("RunArgs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunArgs_EntrypointOverride(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("docker", WithName("docker"))

	got := e.RunArgs(RunOptions{
		Image:      "pybox-build:abc123",
		Entrypoint: "/bin/sh",
		Command:    []string{"-c", "true"},
	})

	if got[1] != "--entrypoint" || got[2] != "/bin/sh" {
		t.Errorf("expected --entrypoint /bin/sh near front, got %v", got)
	}
}

func TestRunArgs_NoCommandPreservesImageDefault(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("docker", WithName("docker"))

	got := e.RunArgs(RunOptions{Image: "pybox-build:abc123"})
	if got[len(got)-1] != "pybox-build:abc123" {
		t.Errorf("expected image to be the last arg when no command override, got %v", got)
	}
}

func TestBaseCLIEngine_Pull(t *testing.T) {
	recorder := NewMockCommandRecorder()
	e := newTestEngine(t, recorder)

	var out bytes.Buffer
	err := e.Pull(context.Background(), PullOptions{Image: "python:3.11", Stdout: &out, Stderr: &out})
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}

	recorder.AssertFirstArg(t, "pull")
	recorder.AssertArgsContain(t, "python:3.11")
}

func TestBaseCLIEngine_Pull_InvalidImage(t *testing.T) {
	recorder := NewMockCommandRecorder()
	e := newTestEngine(t, recorder)

	err := e.Pull(context.Background(), PullOptions{Image: ""})
	if err == nil {
		t.Fatal("expected validation error for empty image")
	}
	if len(recorder.Invocations) != 0 {
		t.Errorf("expected no engine invocation on validation failure, got %d", len(recorder.Invocations))
	}
}

func TestBaseCLIEngine_Build(t *testing.T) {
	recorder := NewMockCommandRecorder()
	e := newTestEngine(t, recorder)

	err := e.Build(context.Background(), BuildOptions{
		ContextDir: t.TempDir(),
		Dockerfile: "Dockerfile",
		Tag:        "pybox-build:deadbeef",
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	recorder.AssertFirstArg(t, "build")
	if !recorder.HasArgPair("-t", "pybox-build:deadbeef") {
		t.Errorf("expected -t pybox-build:deadbeef in args, got %v", recorder.LastArgs())
	}
}

func TestBaseCLIEngine_Run_ExitCodePassthrough(t *testing.T) {
	recorder := NewMockCommandRecorder()
	recorder.ExitCode = 42
	e := newTestEngine(t, recorder)

	result, err := e.Run(context.Background(), RunOptions{Image: "pybox-build:abc"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 42 {
		t.Errorf("expected exit code 42 passed through, got %d", result.ExitCode)
	}
	if result.Error != nil {
		t.Errorf("process exit code must not surface as infrastructure error, got %v", result.Error)
	}
}

func TestBaseCLIEngine_Run_Success(t *testing.T) {
	recorder := NewMockCommandRecorder()
	recorder.Stdout = "hello"
	e := newTestEngine(t, recorder)

	var out bytes.Buffer
	result, err := e.Run(context.Background(), RunOptions{Image: "pybox-build:abc", Stdout: &out})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode)
	}
	if out.String() != "hello" {
		t.Errorf("expected stdout %q, got %q", "hello", out.String())
	}
}

func TestBaseCLIEngine_RemoveImage(t *testing.T) {
	recorder := NewMockCommandRecorder()
	e := newTestEngine(t, recorder)

	if err := e.RemoveImage(context.Background(), "pybox-build:abc", true); err != nil {
		t.Fatalf("RemoveImage() error = %v", err)
	}

	recorder.AssertFirstArg(t, "rmi")
	if !recorder.HasArg("-f") {
		t.Errorf("expected -f in args, got %v", recorder.LastArgs())
	}
}
