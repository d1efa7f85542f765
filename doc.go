// Package cimcore implements a client-side object model for CIM-style,
// schema-driven remote management protocols.
//
// The model turns a handle-based native protocol engine (see the engine
// package) into a safe, enumerable, ownership-correct object graph:
//
//	Application → Session → Operation → Instance / Class
//
// An Application is the process-level root and the factory for Sessions and
// for freestanding Instances used as method input. A Session is one open
// conversation with a target endpoint; it runs queries and enumerations,
// looks up class schema, and invokes methods. An Operation is a pull-based
// streaming cursor over query results. Instances and Classes expose their
// elements through the shared cim.ElementAccess contract.
//
// # Ownership
//
// Every Instance carries an ownership tag. Owned instances exclusively own
// the underlying engine allocation and release it on Close, exactly once.
// Borrowed instances (produced by Operation.NextInstanceView) are on loan
// from the cursor: Close never releases them, mutation fails
// engine.ErrReadOnlyInstance, and the loan ends at the next pull or at
// cursor close. Clone always produces an owned, independent copy and is the
// way to retain a borrowed result. Classes are always owned.
//
// # Enumeration
//
// Operations are stateful cursors: pulls are valid while the operation is
// active, and the first pull that finds no further item transitions the
// operation to its exhausted state. Pulling after exhaustion is a well
// defined no-op reporting end-of-stream, so consumer loops need no special
// casing:
//
//	op, err := sess.ExecQuery(ctx, "root/cimv2", "SELECT * FROM Widget")
//	if err != nil {
//		return err
//	}
//	defer op.Close()
//	for {
//		inst, ok, err := op.GetNextInstance(ctx)
//		if err != nil {
//			return err
//		}
//		if !ok {
//			break
//		}
//		// use inst...
//		inst.Close()
//	}
//
// Closing an operation before it is exhausted is a supported pattern and
// releases the cursor without draining it.
//
// # Concurrency
//
// The model performs no implicit concurrency: every call is a synchronous
// call into the engine that may block for a remote round trip. Each wrapper
// (Session, Operation, Instance, Class) carries its own exclusive lock, held
// exactly for the duration of the engine call, so callers on other handles
// make progress while one handle waits on the network. Pulls on one
// Operation are strictly sequential. Items already pulled are independent of
// the cursor and of each other.
package cimcore
