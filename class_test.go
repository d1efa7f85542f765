package cimcore

import (
	"context"
	"errors"
	"testing"

	"github.com/smnsjas/go-cimcore/cim"
	"github.com/smnsjas/go-cimcore/engine"
)

func widgetClass(t *testing.T) *Class {
	t.Helper()
	sess, _ := newTestSession(t)
	cls, err := sess.GetClass(context.Background(), "root/test", "Widget")
	if err != nil {
		t.Fatalf("GetClass failed: %v", err)
	}
	t.Cleanup(func() { cls.Close() })
	return cls
}

func TestClassProperties(t *testing.T) {
	cls := widgetClass(t)

	n, err := cls.ElementCount()
	if err != nil || n != 3 {
		t.Fatalf("ElementCount = %d, %v, want 3", n, err)
	}

	name, err := cls.GetElement("Name")
	if err != nil {
		t.Fatalf("GetElement(Name) failed: %v", err)
	}
	if name.Type != cim.TypeString || name.Flags&cim.FlagKey == 0 {
		t.Errorf("Name declaration = %+v, want keyed string", name)
	}

	// Declarations carry schema defaults, in declaration order.
	size, err := cls.GetElementAt(1)
	if err != nil {
		t.Fatalf("GetElementAt(1) failed: %v", err)
	}
	if size.Name != "Size" || size.Type != cim.TypeUint32 || size.Value != uint32(1) {
		t.Errorf("GetElementAt(1) = %+v, want Size uint32 default 1", size)
	}

	if _, err := cls.GetElement("NoSuch"); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("GetElement(NoSuch): got %v, want ErrNotFound", err)
	}
	if _, err := cls.GetElementAt(3); !errors.Is(err, engine.ErrIndexOutOfRange) {
		t.Errorf("GetElementAt(3): got %v, want ErrIndexOutOfRange", err)
	}
}

func TestClassMethods(t *testing.T) {
	cls := widgetClass(t)

	n, err := cls.MethodCount()
	if err != nil || n != 2 {
		t.Fatalf("MethodCount = %d, %v, want 2", n, err)
	}

	reset, err := cls.GetMethod("Reset")
	if err != nil {
		t.Fatalf("GetMethod(Reset) failed: %v", err)
	}
	if len(reset.Parameters) != 2 {
		t.Fatalf("Reset has %d parameters, want 2", len(reset.Parameters))
	}
	force, ok := reset.Parameter("Force")
	if !ok || force.Type != cim.TypeBoolean {
		t.Fatalf("Parameter(Force) = %+v, %v", force, ok)
	}
	if q, ok := force.Qualifier("In"); !ok || q.Value != true {
		t.Errorf("Force In qualifier = %+v, %v", q, ok)
	}
	count, ok := reset.Parameter("ResetCount")
	if !ok {
		t.Fatal("Parameter(ResetCount) missing")
	}
	if q, ok := count.Qualifier("Out"); !ok || q.Value != true {
		t.Errorf("ResetCount Out qualifier = %+v, %v", q, ok)
	}

	// Index lookup follows declaration order.
	byIndex, err := cls.GetMethodAt(0)
	if err != nil || byIndex.Name != "Reset" {
		t.Errorf("GetMethodAt(0) = %q, %v, want Reset", byIndex.Name, err)
	}

	if _, err := cls.GetMethod("NoSuch"); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("GetMethod(NoSuch): got %v, want ErrNotFound", err)
	}
	if _, err := cls.GetMethodAt(2); !errors.Is(err, engine.ErrIndexOutOfRange) {
		t.Errorf("GetMethodAt(2): got %v, want ErrIndexOutOfRange", err)
	}
}

func TestMethodInfoIsACopy(t *testing.T) {
	cls := widgetClass(t)

	first, err := cls.GetMethod("Reset")
	if err != nil {
		t.Fatalf("GetMethod failed: %v", err)
	}
	first.Parameters[0].Name = "Tampered"

	second, err := cls.GetMethod("Reset")
	if err != nil {
		t.Fatalf("GetMethod failed: %v", err)
	}
	if second.Parameters[0].Name != "Force" {
		t.Errorf("schema mutated through returned descriptor: %q", second.Parameters[0].Name)
	}
}

func TestClassCloseReleases(t *testing.T) {
	cls := widgetClass(t)

	if err := cls.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := cls.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if _, err := cls.Name(); !errors.Is(err, engine.ErrInvalidHandle) {
		t.Errorf("Name after close: got %v, want ErrInvalidHandle", err)
	}
	if _, err := cls.GetMethod("Reset"); !errors.Is(err, engine.ErrInvalidHandle) {
		t.Errorf("GetMethod after close: got %v, want ErrInvalidHandle", err)
	}
}
