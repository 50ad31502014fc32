package remote

import "testing"

func TestQueueStartCompleteLifecycle(t *testing.T) {
	e := NewExecutor()
	id := e.Queue("host1", "ls -la", 5000, 1000)
	if id != "exec-1" {
		t.Fatalf("expected exec-1, got %s", id)
	}
	if err := e.Start(id, 1100); err != nil {
		t.Fatal(err)
	}
	if err := e.Complete(id, 0, "out", "", 1200); err != nil {
		t.Fatal(err)
	}
	hist := e.History()
	if len(hist) != 1 || hist[0].Status != Completed || *hist[0].ExitCode != 0 {
		t.Fatalf("unexpected history: %+v", hist)
	}
}

func TestStartUnknownQueuedFails(t *testing.T) {
	e := NewExecutor()
	if err := e.Start("exec-99", 1000); err == nil {
		t.Fatal("expected error starting unknown execution")
	}
}

func TestCompleteRequiresActive(t *testing.T) {
	e := NewExecutor()
	id := e.Queue("host1", "ls", 0, 1000)
	if err := e.Complete(id, 0, "", "", 1100); err == nil {
		t.Fatal("expected completing a non-active execution to fail")
	}
}

func TestTimeoutAndFailMoveToHistory(t *testing.T) {
	e := NewExecutor()
	id1 := e.Queue("host1", "sleep 100", 1000, 0)
	e.Start(id1, 0)
	if err := e.Timeout(id1, 2000); err != nil {
		t.Fatal(err)
	}

	id2 := e.Queue("host1", "false", 0, 0)
	e.Start(id2, 0)
	if err := e.Fail(id2, "connection refused", 10); err != nil {
		t.Fatal(err)
	}

	hist := e.History()
	if len(hist) != 2 || hist[0].Status != TimedOut || hist[1].Status != Failed {
		t.Fatalf("unexpected history: %+v", hist)
	}
	if hist[1].Error != "connection refused" {
		t.Fatalf("expected error message preserved, got %q", hist[1].Error)
	}
}

func TestCheckTimeoutsReturnsElapsedActive(t *testing.T) {
	e := NewExecutor()
	id := e.Queue("host1", "long-job", 1000, 0)
	e.Start(id, 5000)

	if got := e.CheckTimeouts(5500); len(got) != 0 {
		t.Fatalf("expected no timeouts yet, got %+v", got)
	}
	got := e.CheckTimeouts(6000)
	if len(got) != 1 || got[0].ID != id {
		t.Fatalf("expected %s to be timed out, got %+v", id, got)
	}
}

func TestBuildSSHCommandWithKey(t *testing.T) {
	ex := Execution{Command: "echo hi | wc -l"}
	cfg := RemoteConfig{Host: "box.example.com", Port: 2222, User: "deploy", Key: "/keys/id_rsa"}
	argv := BuildSSHCommand(ex, cfg)
	want := []string{"-i", "/keys/id_rsa", "-p", "2222", "deploy@box.example.com", "echo hi | wc -l"}
	if len(argv) != len(want) {
		t.Fatalf("argv mismatch: got %v want %v", argv, want)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Fatalf("argv[%d]: got %q want %q", i, argv[i], want[i])
		}
	}
}

func TestBuildSSHCommandWithoutKey(t *testing.T) {
	ex := Execution{Command: "uptime"}
	cfg := RemoteConfig{Host: "box", Port: 22, User: "root"}
	argv := BuildSSHCommand(ex, cfg)
	for _, a := range argv {
		if a == "-i" {
			t.Fatalf("expected no -i flag without a key, got %v", argv)
		}
	}
	if argv[len(argv)-1] != "uptime" {
		t.Fatalf("expected command as final unquoted argv element, got %v", argv)
	}
}
