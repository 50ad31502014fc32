package messenger

import "testing"

func TestDeliverIsFIFO(t *testing.T) {
	m := New()
	id1, _ := m.Send("a", "w1", Text, "first", Normal, 100)
	id2, _ := m.Send("a", "w1", Text, "second", Normal, 101)

	msg1, err := m.Deliver("w1", 200)
	if err != nil || msg1.ID != id1 {
		t.Fatalf("expected first message, got %+v err=%v", msg1, err)
	}
	msg2, err := m.Deliver("w1", 201)
	if err != nil || msg2.ID != id2 {
		t.Fatalf("expected second message, got %+v err=%v", msg2, err)
	}
	if *msg1.DeliveredMs > *msg2.DeliveredMs {
		t.Fatal("FIFO order violated: m1.delivered_ms > m2.delivered_ms")
	}
}

func TestDeliverPriorityPicksHighestThenOldest(t *testing.T) {
	m := New()
	m.Send("a", "w1", Text, "normal-1", Normal, 0)
	idHigh, _ := m.Send("a", "w1", Text, "high", High, 1)
	m.Send("a", "w1", Text, "normal-2", Normal, 2)
	idUrgent, _ := m.Send("a", "w1", Text, "urgent", Urgent, 3)

	msg, err := m.DeliverPriority("w1", 10)
	if err != nil || msg.ID != idUrgent {
		t.Fatalf("expected urgent message first, got %+v err=%v", msg, err)
	}
	msg, err = m.DeliverPriority("w1", 11)
	if err != nil || msg.ID != idHigh {
		t.Fatalf("expected high message next, got %+v err=%v", msg, err)
	}
}

func TestAcknowledgeLaws(t *testing.T) {
	m := New()
	id, _ := m.Send("a", "w1", Text, "x", Normal, 0)

	if err := m.Acknowledge(id, 5); err == nil {
		t.Fatal("expected ack of undelivered message to fail")
	}

	if _, err := m.Deliver("w1", 10); err != nil {
		t.Fatal(err)
	}
	if err := m.Acknowledge(id, 15); err != nil {
		t.Fatalf("expected first ack to succeed: %v", err)
	}
	if err := m.Acknowledge(id, 16); err == nil {
		t.Fatal("expected second ack to fail")
	}
}

func TestStats(t *testing.T) {
	m := New()
	id1, _ := m.Send("a", "w1", Text, "1", Normal, 0)
	m.Send("a", "w1", Text, "2", Normal, 0)
	m.Deliver("w1", 1)
	m.Acknowledge(id1, 2)

	st := m.Stats()
	if st.TotalSent != 2 || st.TotalDelivered != 1 || st.TotalAcked != 1 || st.Pending != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestCancelInbox(t *testing.T) {
	m := New()
	m.Send("a", "w1", Text, "1", Normal, 0)
	m.Send("a", "w1", Text, "2", Normal, 0)
	if n := m.CancelInbox("w1"); n != 2 {
		t.Fatalf("expected 2 dropped, got %d", n)
	}
	if _, err := m.Deliver("w1", 1); err == nil {
		t.Fatal("expected empty inbox after cancel")
	}
}
