// cimq queries and inspects a CIM-style management store served by the
// in-memory engine. It exists to exercise the full object model from the
// command line: streaming queries, class reflection, and method invocation.
//
// Usage:
//
//	cimq --store fixtures/store.yaml query -n root/cimv2 "SELECT * FROM Widget WHERE Size > 10"
//	cimq --store fixtures/store.yaml classes -n root/cimv2
//	cimq --store fixtures/store.yaml class -n root/cimv2 Widget
//	cimq --store fixtures/store.yaml invoke -n root/cimv2 Widget Reset
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cimcore "github.com/smnsjas/go-cimcore"
	"github.com/smnsjas/go-cimcore/cim"
	"github.com/smnsjas/go-cimcore/engine"
	"github.com/smnsjas/go-cimcore/memengine"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	label   = color.New(color.FgYellow)
	warn    = color.New(color.FgRed)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		warn.Fprintf(os.Stderr, "cimq: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	storePath string
	namespace string
	target    string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "cimq",
		Short:         "Query and inspect a CIM-style management store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.storePath, "store", "", "path to the YAML store definition (required)")
	root.PersistentFlags().StringVarP(&a.namespace, "namespace", "n", "root/cimv2", "namespace to operate in")
	root.PersistentFlags().StringVar(&a.target, "target", ".", "endpoint to connect to")
	_ = root.MarkPersistentFlagRequired("store")

	root.AddCommand(a.queryCmd(), a.classesCmd(), a.classCmd(), a.invokeCmd())
	return root
}

// withSession opens the store, application, and session, runs fn, and tears
// everything down in order.
func (a *app) withSession(fn func(ctx context.Context, application *cimcore.Application, sess *cimcore.Session) error) error {
	ctx := context.Background()

	store, err := memengine.Load(a.storePath)
	if err != nil {
		return err
	}
	eng, err := memengine.New(store)
	if err != nil {
		return err
	}
	application, err := cimcore.NewApplication(eng)
	if err != nil {
		return err
	}
	defer application.Close()

	sess, err := application.NewSession(ctx, cimcore.WithTarget(a.target))
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	return fn(ctx, application, sess)
}

func (a *app) queryCmd() *cobra.Command {
	var dialect string
	cmd := &cobra.Command{
		Use:   "query <wql>",
		Short: "Run a query and stream the matching instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.withSession(func(ctx context.Context, _ *cimcore.Application, sess *cimcore.Session) error {
				op, err := sess.ExecQueryDialect(ctx, a.namespace, args[0], dialect)
				if err != nil {
					return err
				}
				defer op.Close()

				total := 0
				for {
					inst, ok, err := op.GetNextInstance(ctx)
					if err != nil {
						return err
					}
					if !ok {
						break
					}
					if err := printInstance(inst); err != nil {
						inst.Close()
						return err
					}
					inst.Close()
					total++
				}
				fmt.Printf("%d instance(s)\n", total)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dialect, "dialect", cimcore.DefaultDialect, "query dialect")
	return cmd
}

func (a *app) classesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "Enumerate the class definitions in the namespace",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.withSession(func(ctx context.Context, _ *cimcore.Application, sess *cimcore.Session) error {
				op, err := sess.EnumerateClasses(ctx, a.namespace)
				if err != nil {
					return err
				}
				defer op.Close()

				for {
					cls, ok, err := op.GetNextClass(ctx)
					if err != nil {
						return err
					}
					if !ok {
						return nil
					}
					if err := printClassSummary(cls); err != nil {
						cls.Close()
						return err
					}
					cls.Close()
				}
			})
		},
	}
}

func (a *app) classCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "class <name>",
		Short: "Describe one class: properties, methods, and parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.withSession(func(ctx context.Context, _ *cimcore.Application, sess *cimcore.Session) error {
				cls, err := sess.GetClass(ctx, a.namespace, args[0])
				if err != nil {
					return err
				}
				defer cls.Close()
				return printClass(cls)
			})
		},
	}
}

func (a *app) invokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <class> <method> [param=value ...]",
		Short: "Invoke a class method and print its output parameters",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.withSession(func(ctx context.Context, application *cimcore.Application, sess *cimcore.Session) error {
				className, methodName := args[0], args[1]

				var in *cimcore.Instance
				if len(args) > 2 {
					var err error
					in, err = buildInput(application, className, args[2:])
					if err != nil {
						return err
					}
					defer in.Close()
				}

				out, err := sess.InvokeClassMethod(ctx, a.namespace, className, methodName, in)
				if err != nil {
					return err
				}
				defer out.Close()

				heading.Printf("%s.%s\n", className, methodName)
				return printElements(out)
			})
		},
	}
}

// buildInput assembles an input-parameter instance from name=value pairs.
// Values parse as bool, then integer, then fall back to string.
func buildInput(application *cimcore.Application, className string, pairs []string) (*cimcore.Instance, error) {
	in, err := application.NewInstance(className)
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		name, raw, ok := splitPair(pair)
		if !ok {
			in.Close()
			return nil, fmt.Errorf("malformed parameter %q, want name=value", pair)
		}
		value, typ := parseValue(raw)
		err := in.SetElement(name, value, typ)
		switch {
		case errors.Is(err, engine.ErrNotFound):
			err = in.AddElement(name, value, typ)
		case errors.Is(err, engine.ErrTypeMismatch):
			// The parsed type is a guess; retry with the element's
			// declared type before giving up.
			if declared, terr := in.GetElementType(name); terr == nil {
				err = in.SetElement(name, value, declared)
			}
		}
		if err != nil {
			in.Close()
			return nil, err
		}
	}
	return in, nil
}

func splitPair(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], i > 0
		}
	}
	return "", "", false
}

func parseValue(raw string) (any, cim.Type) {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b, cim.TypeBoolean
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, cim.TypeSint64
	}
	return raw, cim.TypeString
}

func printInstance(inst *cimcore.Instance) error {
	name, err := inst.ClassName()
	if err != nil {
		return err
	}
	heading.Println(name)
	return printElements(inst)
}

func printElements(access cim.ElementAccess) error {
	count, err := access.ElementCount()
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		el, err := access.GetElementAt(i)
		if err != nil {
			return err
		}
		label.Printf("  %-16s", el.Name)
		fmt.Printf(" (%s) = %s\n", el.Type, formatValue(el))
	}
	return nil
}

func formatValue(el cim.Element) string {
	if el.Flags&cim.FlagNull != 0 || el.Value == nil {
		return "null"
	}
	return fmt.Sprintf("%v", el.Value)
}

func printClassSummary(cls *cimcore.Class) error {
	name, err := cls.Name()
	if err != nil {
		return err
	}
	props, err := cls.ElementCount()
	if err != nil {
		return err
	}
	methods, err := cls.MethodCount()
	if err != nil {
		return err
	}
	fmt.Printf("%s  (%d properties, %d methods)\n", name, props, methods)
	return nil
}

func printClass(cls *cimcore.Class) error {
	name, err := cls.Name()
	if err != nil {
		return err
	}
	heading.Println(name)

	label.Println("properties:")
	if err := printElements(cls); err != nil {
		return err
	}

	methods, err := cls.MethodCount()
	if err != nil {
		return err
	}
	if methods == 0 {
		return nil
	}
	label.Println("methods:")
	for i := 0; i < methods; i++ {
		mi, err := cls.GetMethodAt(i)
		if err != nil {
			return err
		}
		fmt.Printf("  %s(", mi.Name)
		for j, p := range mi.Parameters {
			if j > 0 {
				fmt.Print(", ")
			}
			fmt.Printf("%s %s", p.Type, p.Name)
		}
		fmt.Println(")")
	}
	return nil
}
