package notify

import "testing"

func ttl(ms int64) *int64 { return &ms }

func TestPushEvictsOldestOverCapacity(t *testing.T) {
	c := New(2)
	c.Push("info", "a", "", 0, nil)
	c.Push("info", "b", "", 1, nil)
	c.Push("info", "c", "", 2, nil)
	if c.Len() != 2 {
		t.Fatalf("expected capacity-bounded length 2, got %d", c.Len())
	}
	if c.items[0].Body != "b" {
		t.Fatalf("expected oldest dropped, got %+v", c.items)
	}
}

func TestPruneDropsExpiredKeepsPersistent(t *testing.T) {
	c := New(0)
	c.Push("info", "expiring", "", 0, ttl(100))
	c.Push("info", "persistent", "", 0, nil)
	removed := c.Prune(100)
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if c.Len() != 1 || c.items[0].Body != "persistent" {
		t.Fatalf("expected persistent item retained, got %+v", c.items)
	}
}

func TestMarkReadAndQueries(t *testing.T) {
	c := New(0)
	id1 := c.Push("warn", "a", "src1", 0, nil)
	c.Push("warn", "b", "src2", 1, nil)
	if len(c.Unread()) != 2 {
		t.Fatalf("expected 2 unread, got %d", len(c.Unread()))
	}
	c.MarkRead(id1)
	if len(c.Unread()) != 1 {
		t.Fatalf("expected 1 unread after mark, got %d", len(c.Unread()))
	}
	if len(c.ByType("warn")) != 2 {
		t.Fatalf("expected 2 by type, got %d", len(c.ByType("warn")))
	}
	if len(c.BySource("src1")) != 1 {
		t.Fatalf("expected 1 by source, got %d", len(c.BySource("src1")))
	}
	c.MarkAllRead()
	if len(c.Unread()) != 0 {
		t.Fatal("expected all read")
	}
}

func TestDismissRemoves(t *testing.T) {
	c := New(0)
	id := c.Push("info", "a", "", 0, nil)
	if err := c.Dismiss(id); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty after dismiss, got %d", c.Len())
	}
	if err := c.Dismiss(id); err == nil {
		t.Fatal("expected error dismissing already-removed item")
	}
}

func TestLatestAndLatestUnreadOrdering(t *testing.T) {
	c := New(0)
	c.Push("info", "a", "", 0, nil)
	c.Push("info", "b", "", 1, nil)
	id3 := c.Push("info", "c", "", 2, nil)
	c.MarkRead(id3)
	latest := c.Latest(2)
	if latest[0].Body != "c" || latest[1].Body != "b" {
		t.Fatalf("expected newest-first, got %+v", latest)
	}
	latestUnread := c.LatestUnread(5)
	if len(latestUnread) != 2 || latestUnread[0].Body != "b" {
		t.Fatalf("expected unread newest-first excluding read, got %+v", latestUnread)
	}
}
