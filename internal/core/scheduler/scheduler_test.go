package scheduler

import "testing"

func TestFifoOrdering(t *testing.T) {
	s := New(Policy{Kind: Fifo})
	s.Submit(Entry{ExecutionID: "e1", SubmittedMs: 200})
	s.Submit(Entry{ExecutionID: "e2", SubmittedMs: 100})
	e, ok := s.Dequeue(1000)
	if !ok || e.ExecutionID != "e2" {
		t.Fatalf("expected e2 first by submission, got %+v", e)
	}
}

func TestPriorityOrderingWithTieBreak(t *testing.T) {
	s := New(Policy{Kind: PriorityPolicy})
	s.Submit(Entry{ExecutionID: "low", Priority: Normal, SubmittedMs: 1})
	s.Submit(Entry{ExecutionID: "urgent-later", Priority: Urgent, SubmittedMs: 200})
	s.Submit(Entry{ExecutionID: "urgent-earlier", Priority: Urgent, SubmittedMs: 100})
	e, _ := s.Dequeue(1000)
	if e.ExecutionID != "urgent-earlier" {
		t.Fatalf("expected earliest urgent entry, got %+v", e)
	}
}

func TestRoundRobinRotatesThroughAgents(t *testing.T) {
	s := New(Policy{Kind: RoundRobin, Agents: []string{"a1", "a2"}})
	s.Submit(Entry{ExecutionID: "for-a2", AgentAffinity: "a2", SubmittedMs: 1})
	s.Submit(Entry{ExecutionID: "for-a1", AgentAffinity: "a1", SubmittedMs: 2})
	first, _ := s.Dequeue(100)
	if first.ExecutionID != "for-a1" {
		t.Fatalf("expected dequeue 0 to pick agents[0]=a1, got %+v", first)
	}
	second, _ := s.Dequeue(200)
	if second.ExecutionID != "for-a2" {
		t.Fatalf("expected dequeue 1 to pick agents[1]=a2, got %+v", second)
	}
}

func TestAffinityOrderingPrefersMatch(t *testing.T) {
	s := New(Policy{Kind: Affinity, Preferred: "a1"})
	s.Submit(Entry{ExecutionID: "other", AgentAffinity: "a2", Priority: Urgent, SubmittedMs: 1})
	s.Submit(Entry{ExecutionID: "mine", AgentAffinity: "a1", Priority: Normal, SubmittedMs: 2})
	e, _ := s.Dequeue(100)
	if e.ExecutionID != "mine" {
		t.Fatalf("expected affinity match to win over priority, got %+v", e)
	}
}

func TestDequeueForAgentPrefersAffinityThenUnaffinedThenFirst(t *testing.T) {
	s := New(Policy{Kind: Fifo})
	s.Submit(Entry{ExecutionID: "unaffined", SubmittedMs: 1})
	s.Submit(Entry{ExecutionID: "affined", AgentAffinity: "a1", SubmittedMs: 2})
	e, _ := s.DequeueForAgent("a1", 100)
	if e.ExecutionID != "affined" {
		t.Fatalf("expected affined entry, got %+v", e)
	}
	e2, _ := s.DequeueForAgent("a9", 200)
	if e2.ExecutionID != "unaffined" {
		t.Fatalf("expected unaffined entry for unmatched agent, got %+v", e2)
	}
}

func TestMetricsAvgLeMaxAndUtilisationBounded(t *testing.T) {
	s := New(Policy{Kind: Fifo})
	s.Submit(Entry{ExecutionID: "e1", SubmittedMs: 0})
	s.Submit(Entry{ExecutionID: "e2", SubmittedMs: 0})
	s.Dequeue(50)
	s.Dequeue(300)
	m := s.ComputeMetrics(1000, 500, 10)
	if m.AvgWaitMs > float64(m.MaxWaitMs) {
		t.Fatalf("avg_wait must be <= max_wait, got avg=%v max=%v", m.AvgWaitMs, m.MaxWaitMs)
	}
	if m.UtilisationPct < 0 || m.UtilisationPct > 100 {
		t.Fatalf("utilisation out of bounds: %v", m.UtilisationPct)
	}
}

func TestMetricsZeroWhenNoDequeues(t *testing.T) {
	s := New(Policy{Kind: Fifo})
	m := s.ComputeMetrics(1000, 500, 0)
	if m.AvgWaitMs != 0 || m.MaxWaitMs != 0 || m.UtilisationPct != 0 {
		t.Fatalf("expected all-zero metrics, got %+v", m)
	}
}

func TestRemoveDropsPendingEntry(t *testing.T) {
	s := New(Policy{Kind: Fifo})
	s.Submit(Entry{ExecutionID: "e1", SubmittedMs: 1})
	if err := s.Remove("e1"); err != nil {
		t.Fatal(err)
	}
	if s.Pending() != 0 {
		t.Fatalf("expected empty queue after remove, got %d", s.Pending())
	}
	if err := s.Remove("missing"); err == nil {
		t.Fatal("expected error removing unknown execution")
	}
}
