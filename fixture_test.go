package cimcore

import (
	"context"
	"testing"

	"github.com/smnsjas/go-cimcore/memengine"
)

// testStoreYAML seeds the deterministic fixture the object-model tests run
// against: three Widget instances and one Gadget in root/test.
const testStoreYAML = `
namespaces:
  root/test:
    classes:
      - name: Widget
        properties:
          - name: Name
            type: string
            key: true
          - name: Size
            type: uint32
            default: 1
          - name: Color
            type: string
            default: blue
        methods:
          - name: Reset
            parameters:
              - name: Force
                type: boolean
                in: true
              - name: ResetCount
                type: uint32
                out: true
            returns:
              - name: ResetCount
                type: uint32
                value: 1
              - name: ReturnValue
                type: uint32
                value: 0
          - name: Explode
            fail: true
            returns:
              - name: ReturnValue
                type: uint32
                value: 1
      - name: Gadget
        properties:
          - name: Serial
            type: string
            key: true
    instances:
      - class: Widget
        properties: {Name: w1, Size: 10, Color: red}
      - class: Widget
        properties: {Name: w2, Size: 20}
      - class: Widget
        properties: {Name: w3, Size: 30, Color: green}
      - class: Gadget
        properties: {Serial: g1}
`

func newTestEngine(t *testing.T, opts ...memengine.Option) *memengine.Engine {
	t.Helper()
	store, err := memengine.Parse([]byte(testStoreYAML))
	if err != nil {
		t.Fatalf("parse test store: %v", err)
	}
	eng, err := memengine.New(store, opts...)
	if err != nil {
		t.Fatalf("build test engine: %v", err)
	}
	return eng
}

func newTestApp(t *testing.T, opts ...memengine.Option) (*Application, *memengine.Engine) {
	t.Helper()
	eng := newTestEngine(t, opts...)
	app, err := NewApplication(eng)
	if err != nil {
		t.Fatalf("NewApplication failed: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app, eng
}

func newTestSession(t *testing.T, opts ...memengine.Option) (*Session, *memengine.Engine) {
	t.Helper()
	app, eng := newTestApp(t, opts...)
	sess, err := app.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	t.Cleanup(func() { sess.Close(context.Background()) })
	return sess, eng
}

// pullWidget pulls one instance and fails the test at end-of-stream.
func pullWidget(t *testing.T, op *Operation) *Instance {
	t.Helper()
	inst, ok, err := op.GetNextInstance(context.Background())
	if err != nil {
		t.Fatalf("GetNextInstance failed: %v", err)
	}
	if !ok {
		t.Fatal("unexpected end-of-stream")
	}
	return inst
}

// queryWidgets runs the standard fixture query.
func queryWidgets(t *testing.T, sess *Session) *Operation {
	t.Helper()
	op, err := sess.ExecQuery(context.Background(), "root/test", "SELECT * FROM Widget")
	if err != nil {
		t.Fatalf("ExecQuery failed: %v", err)
	}
	t.Cleanup(func() { op.Close() })
	return op
}
