package memengine

import (
	"context"
	"errors"
	"testing"

	"github.com/smnsjas/go-cimcore/cim"
	"github.com/smnsjas/go-cimcore/engine"
)

func openSession(t *testing.T, eng *Engine) engine.SessionHandle {
	t.Helper()
	s, err := eng.OpenSession(context.Background(), engine.SessionOptions{Target: "."})
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}
	return s
}

func TestSessionLifecycle(t *testing.T) {
	eng := fixtureEngine(t)
	ctx := context.Background()

	if _, err := eng.OpenSession(ctx, engine.SessionOptions{Target: "nowhere"}); !errors.Is(err, engine.ErrConnectionFailed) {
		t.Errorf("unknown target: got %v, want ErrConnectionFailed", err)
	}

	s := openSession(t, eng)
	if err := eng.CloseSession(ctx, s); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	if err := eng.CloseSession(ctx, s); !errors.Is(err, engine.ErrInvalidHandle) {
		t.Errorf("double close: got %v, want ErrInvalidHandle", err)
	}
	if _, err := eng.ExecQuery(ctx, s, "root/test", "SELECT * FROM Widget", Dialect); !errors.Is(err, engine.ErrInvalidHandle) {
		t.Errorf("query on closed session: got %v, want ErrInvalidHandle", err)
	}
	if eng.OpenHandles() != 0 {
		t.Errorf("OpenHandles = %d after teardown", eng.OpenHandles())
	}
}

func TestAllowTargetOption(t *testing.T) {
	eng := fixtureEngine(t, AllowTarget("server01"))
	if _, err := eng.OpenSession(context.Background(), engine.SessionOptions{Target: "server01"}); err != nil {
		t.Errorf("allowed target rejected: %v", err)
	}
}

func TestExecQueryRejections(t *testing.T) {
	eng := fixtureEngine(t)
	ctx := context.Background()
	s := openSession(t, eng)

	tests := []struct {
		name      string
		namespace string
		query     string
		dialect   string
		want      error
	}{
		{"bad dialect", "root/test", "SELECT * FROM Widget", "CQL", engine.ErrUnsupportedDialect},
		{"bad namespace", "root/missing", "SELECT * FROM Widget", Dialect, engine.ErrInvalidNamespace},
		{"bad syntax", "root/test", "SELEKT *", Dialect, engine.ErrInvalidQuery},
		{"unknown class", "root/test", "SELECT * FROM Missing", Dialect, engine.ErrInvalidQuery},
		{"unknown property", "root/test", "SELECT Missing FROM Widget", Dialect, engine.ErrInvalidQuery},
		{"where references unknown property", "root/test", "SELECT * FROM Widget WHERE Bogus > 1", Dialect, engine.ErrInvalidQuery},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := eng.ExecQuery(ctx, s, tc.namespace, tc.query, tc.dialect); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestQueryProjection(t *testing.T) {
	eng := fixtureEngine(t)
	ctx := context.Background()
	s := openSession(t, eng)

	c, err := eng.ExecQuery(ctx, s, "root/test", `SELECT Name FROM Widget WHERE Name = "w1"`, Dialect)
	if err != nil {
		t.Fatalf("ExecQuery failed: %v", err)
	}
	h, ok, err := eng.PullInstance(ctx, c)
	if err != nil || !ok {
		t.Fatalf("PullInstance = %v, %v", ok, err)
	}
	n, err := eng.InstanceElementCount(h)
	if err != nil {
		t.Fatalf("InstanceElementCount failed: %v", err)
	}
	if n != 1 {
		t.Errorf("projected element count = %d, want 1", n)
	}
	el, err := eng.InstanceElement(h, "Name")
	if err != nil {
		t.Fatalf("InstanceElement failed: %v", err)
	}
	if el.Value != "w1" {
		t.Errorf("Name = %#v, want w1", el.Value)
	}
	if _, err := eng.InstanceElement(h, "Size"); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("projected-out property: got %v, want ErrNotFound", err)
	}
}

func TestPullTransfersOwnership(t *testing.T) {
	eng := fixtureEngine(t)
	ctx := context.Background()
	s := openSession(t, eng)

	c, err := eng.ExecQuery(ctx, s, "root/test", "SELECT * FROM Widget", Dialect)
	if err != nil {
		t.Fatalf("ExecQuery failed: %v", err)
	}
	h, ok, err := eng.PullInstance(ctx, c)
	if err != nil || !ok {
		t.Fatalf("PullInstance = %v, %v", ok, err)
	}

	// Closing the cursor must not invalidate an owned pull.
	if err := eng.CloseCursor(c); err != nil {
		t.Fatalf("CloseCursor failed: %v", err)
	}
	if _, err := eng.InstanceClassName(h); err != nil {
		t.Errorf("owned instance unusable after cursor close: %v", err)
	}

	// Mutating the pulled copy must not touch the store.
	if err := eng.InstanceSetElement(h, "Size", 999, cim.TypeUint32); err != nil {
		t.Fatalf("InstanceSetElement failed: %v", err)
	}
	if eng.namespaces["root/test"].instances[0].elems[1].value != uint32(10) {
		t.Error("mutating a pulled instance changed the backing store")
	}

	if err := eng.ReleaseInstance(h); err != nil {
		t.Fatalf("ReleaseInstance failed: %v", err)
	}
	if err := eng.ReleaseInstance(h); !errors.Is(err, engine.ErrInvalidHandle) {
		t.Errorf("double release: got %v, want ErrInvalidHandle", err)
	}
}

func TestViewLoanRevokedByNextPull(t *testing.T) {
	eng := fixtureEngine(t)
	ctx := context.Background()
	s := openSession(t, eng)

	c, err := eng.ExecQuery(ctx, s, "root/test", "SELECT * FROM Widget", Dialect)
	if err != nil {
		t.Fatalf("ExecQuery failed: %v", err)
	}
	v1, ok, err := eng.PullInstanceView(ctx, c)
	if err != nil || !ok {
		t.Fatalf("PullInstanceView = %v, %v", ok, err)
	}
	if _, err := eng.InstanceClassName(v1); err != nil {
		t.Fatalf("view unusable before next pull: %v", err)
	}

	if _, _, err := eng.PullInstanceView(ctx, c); err != nil {
		t.Fatalf("second PullInstanceView failed: %v", err)
	}
	if _, err := eng.InstanceClassName(v1); !errors.Is(err, engine.ErrInvalidHandle) {
		t.Errorf("revoked view: got %v, want ErrInvalidHandle", err)
	}

	// Cursor close revokes the outstanding loan too.
	if err := eng.CloseCursor(c); err != nil {
		t.Fatalf("CloseCursor failed: %v", err)
	}
	if eng.OpenHandles() != 1 { // just the session
		t.Errorf("OpenHandles = %d, want 1", eng.OpenHandles())
	}
}

func TestWrongResultKindAtEngine(t *testing.T) {
	eng := fixtureEngine(t)
	ctx := context.Background()
	s := openSession(t, eng)

	c, err := eng.EnumerateClasses(ctx, s, "root/test")
	if err != nil {
		t.Fatalf("EnumerateClasses failed: %v", err)
	}
	if _, _, err := eng.PullInstance(ctx, c); !errors.Is(err, engine.ErrWrongResultKind) {
		t.Errorf("got %v, want ErrWrongResultKind", err)
	}
}

func TestFailPullsAfter(t *testing.T) {
	eng := fixtureEngine(t, FailPullsAfter(1))
	ctx := context.Background()
	s := openSession(t, eng)

	c, err := eng.ExecQuery(ctx, s, "root/test", "SELECT * FROM Widget", Dialect)
	if err != nil {
		t.Fatalf("ExecQuery failed: %v", err)
	}
	if _, ok, err := eng.PullInstance(ctx, c); err != nil || !ok {
		t.Fatalf("first pull should succeed: %v, %v", ok, err)
	}
	if _, _, err := eng.PullInstance(ctx, c); !errors.Is(err, engine.ErrProtocol) {
		t.Errorf("second pull: got %v, want ErrProtocol", err)
	}
}

func TestInvokeMethodOutput(t *testing.T) {
	eng := fixtureEngine(t)
	ctx := context.Background()
	s := openSession(t, eng)

	out, err := eng.InvokeClassMethod(ctx, s, "root/test", "Widget", "Reset", 0)
	if err != nil {
		t.Fatalf("InvokeClassMethod failed: %v", err)
	}
	name, err := eng.InstanceClassName(out)
	if err != nil || name != outputClassName {
		t.Errorf("output class = %q, %v", name, err)
	}
	rv, err := eng.InstanceElement(out, "ReturnValue")
	if err != nil {
		t.Fatalf("ReturnValue missing: %v", err)
	}
	if rv.Type != cim.TypeUint32 || rv.Value != uint32(0) {
		t.Errorf("ReturnValue = %#v (%s)", rv.Value, rv.Type)
	}
	rc, err := eng.InstanceElement(out, "ResetCount")
	if err != nil {
		t.Fatalf("ResetCount missing: %v", err)
	}
	if rc.Flags&cim.FlagOut == 0 {
		t.Error("ResetCount should carry the Out flag")
	}
	if rc.Value != uint32(1) {
		t.Errorf("ResetCount = %#v, want uint32(1)", rc.Value)
	}

	if _, err := eng.InvokeClassMethod(ctx, s, "root/test", "Widget", "Missing", 0); !errors.Is(err, engine.ErrMethodNotFound) {
		t.Errorf("unknown method: got %v, want ErrMethodNotFound", err)
	}
	if _, err := eng.InvokeClassMethod(ctx, s, "root/test", "Widget", "Explode", 0); !errors.Is(err, engine.ErrInvocationFailed) {
		t.Errorf("failing method: got %v, want ErrInvocationFailed", err)
	}
}

func TestNewInstanceSchemaResolution(t *testing.T) {
	eng := fixtureEngine(t)

	h, err := eng.NewInstance("Widget")
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	n, _ := eng.InstanceElementCount(h)
	if n != 3 {
		t.Errorf("pre-populated element count = %d, want 3", n)
	}
	ns, _ := eng.InstanceNamespace(h)
	if ns != "" {
		t.Errorf("freestanding namespace = %q, want empty", ns)
	}

	unknown, err := eng.NewInstance("Mystery")
	if err != nil {
		t.Fatalf("NewInstance for unknown class failed: %v", err)
	}
	if n, _ := eng.InstanceElementCount(unknown); n != 0 {
		t.Errorf("unknown class element count = %d, want 0", n)
	}
	if _, err := eng.InstanceClass(unknown); !errors.Is(err, engine.ErrSchemaUnavailable) {
		t.Errorf("got %v, want ErrSchemaUnavailable", err)
	}
}
