package mailbox

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_OrderAndUnbounded(t *testing.T) {
	m := New[int]()
	defer m.Close()

	// Nobody is receiving yet; Send must not block.
	for i := 0; i < 1000; i++ {
		m.Send(i)
	}

	for i := 0; i < 1000; i++ {
		select {
		case v := <-m.C():
			require.Equal(t, i, v)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for value %d", i)
		}
	}
}

func TestMailbox_MultipleProducers(t *testing.T) {
	m := New[string]()
	defer m.Close()

	var wg sync.WaitGroup
	for _, p := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m.Send(p)
			}
		}(p)
	}
	wg.Wait()

	counts := map[string]int{}
	for i := 0; i < 150; i++ {
		counts[<-m.C()]++
	}
	assert.Equal(t, map[string]int{"a": 50, "b": 50, "c": 50}, counts)
}

func TestMailbox_CloseDeliversPending(t *testing.T) {
	m := New[string]()
	m.Send("enqueue")
	m.Send("shutdown")
	m.Close()

	var got []string
	done := make(chan struct{})
	go func() {
		for v := range m.C() {
			got = append(got, v)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("receive channel not closed")
	}
	assert.Equal(t, []string{"enqueue", "shutdown"}, got)
}

func TestMailbox_SendAfterClose(t *testing.T) {
	m := New[int]()
	m.Close()
	m.Close()

	done := make(chan struct{})
	go func() {
		m.Send(1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send after close blocked")
	}

	select {
	case v, ok := <-m.C():
		assert.False(t, ok, "unexpected value %d", v)
	case <-time.After(time.Second):
		t.Fatal("receive channel not closed")
	}
}
