package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

// TestExecutePanicRecovery tests that panics are caught and converted to errors
func TestExecutePanicRecovery(t *testing.T) {
	eng := NewEngine()

	eng.Register("panic.test", func(ctx context.Context, node *Node, scope *Scope) error {
		panic("intentional panic for testing")
	}, SlotMeta{})

	node := &Node{
		Name:     "panic.test",
		Filename: "test.blade.html",
		Line:     1,
		Col:      1,
	}

	err := eng.Execute(context.Background(), node, NewScope(nil))
	if err == nil {
		t.Fatal("Expected error from panic, got nil")
	}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "PANIC") {
		t.Errorf("Error should contain 'PANIC', got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "intentional panic for testing") {
		t.Errorf("Error should contain panic message, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "test.blade.html") {
		t.Errorf("Error should contain filename, got: %s", errMsg)
	}
}

// TestExecuteNilPointerPanic tests recovery from nil pointer dereference
func TestExecuteNilPointerPanic(t *testing.T) {
	eng := NewEngine()

	eng.Register("nil.test", func(ctx context.Context, node *Node, scope *Scope) error {
		var ptr *string
		_ = *ptr
		return nil
	}, SlotMeta{})

	node := &Node{Name: "nil.test", Filename: "test.blade.html", Line: 5, Col: 10}

	err := eng.Execute(context.Background(), node, NewScope(nil))
	if err == nil {
		t.Fatal("Expected error from nil pointer panic, got nil")
	}

	var diag Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("Expected Diagnostic, got %T", err)
	}
	if diag.Type != "panic" || diag.Line != 5 || diag.Col != 10 {
		t.Errorf("Unexpected diagnostic: %+v", diag)
	}
}

// TestExecuteNestedPanic tests panic in nested execution
func TestExecuteNestedPanic(t *testing.T) {
	eng := NewEngine()

	eng.Register("inner", func(ctx context.Context, node *Node, scope *Scope) error {
		panic("inner panic")
	}, SlotMeta{})

	root := &Node{Name: "do"}
	root.Append(&Node{Name: "inner", Filename: "nested.blade.html", Line: 3, Col: 2})

	err := eng.Execute(context.Background(), root, NewScope(nil))
	if err == nil {
		t.Fatal("Expected error from nested panic, got nil")
	}
	if !strings.Contains(err.Error(), "nested.blade.html:3:2") {
		t.Errorf("Error should point at the inner node, got: %s", err.Error())
	}
}

func TestExecuteWrapsSlotErrors(t *testing.T) {
	eng := NewEngine()
	sentinel := errors.New("boom")

	eng.Register("fail", func(ctx context.Context, node *Node, scope *Scope) error {
		return sentinel
	}, SlotMeta{})

	err := eng.Execute(context.Background(), &Node{Name: "fail", Line: 2, Col: 7}, NewScope(nil))
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected wrapped sentinel, got %v", err)
	}
	if err.Error() != "template:2:7: boom" {
		t.Errorf("Unexpected message: %q", err.Error())
	}
}

func TestExecuteUsesCurrentRegistration(t *testing.T) {
	eng := NewEngine()
	calls := 0
	eng.Register("count", func(ctx context.Context, node *Node, scope *Scope) error {
		calls++
		return nil
	}, SlotMeta{})

	node := &Node{Name: "count"}
	for i := 0; i < 3; i++ {
		if err := eng.Execute(context.Background(), node, NewScope(nil)); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 3 {
		t.Fatalf("Expected 3 calls, got %d", calls)
	}

	eng.Register("count", func(ctx context.Context, node *Node, scope *Scope) error {
		calls += 10
		return nil
	}, SlotMeta{})
	if err := eng.Execute(context.Background(), node, NewScope(nil)); err != nil {
		t.Fatal(err)
	}
	if calls != 13 {
		t.Fatalf("Expected swapped handler to run, got %d", calls)
	}
}

func TestExecuteSharedTreeConcurrently(t *testing.T) {
	eng := NewEngine()
	eng.Register("echo", func(ctx context.Context, node *Node, scope *Scope) error {
		v, _ := scope.Get("v")
		_, err := io.WriteString(WriterFrom(ctx), v.(string))
		return err
	}, SlotMeta{})

	root := &Node{}
	root.Append(&Node{Name: "echo"}, &Node{Name: "echo"})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var buf bytes.Buffer
			want := strings.Repeat(string(rune('a'+i)), 2)
			ctx := WithWriter(context.Background(), &buf)
			scope := NewScopeFrom(map[string]interface{}{"v": want[:1]})
			if err := eng.Execute(ctx, root, scope); err != nil {
				errs <- err
				return
			}
			if buf.String() != want {
				errs <- errors.New("unexpected output " + buf.String())
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestWriterFromDefaultsToDiscard(t *testing.T) {
	if WriterFrom(context.Background()) != io.Discard {
		t.Fatal("Expected io.Discard without a writer")
	}

	var buf bytes.Buffer
	ctx := WithWriter(context.Background(), &buf)
	io.WriteString(WriterFrom(ctx), "hello")
	if buf.String() != "hello" {
		t.Fatalf("Expected output in buffer, got %q", buf.String())
	}
}
