// Package main provides h5walk, a command-line utility that opens a file
// read-only and prints its object hierarchy: groups, datasets with their
// rank, extents, and element type, and attribute names.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/scigolib/h5obj"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	var debug bool
	cmd := &cobra.Command{
		Use:   "h5walk <file>",
		Short: "print the object hierarchy of a file",
		Long:  `h5walk opens a file read-only and walks its hierarchy, printing every group, every dataset with its shape and element type, and the attribute names on each object.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				l := logrus.New()
				l.SetLevel(logrus.DebugLevel)
				h5obj.SetLogger(l)
			}
			return walkFile(args[0])
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug tracing")
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func walkFile(path string) error {
	f, err := h5obj.Open(path, true)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "closing %s: %v\n", path, cerr)
		}
	}()

	fmt.Println(f.Filename())
	return walkGroup(f.Root(), 0)
}

func walkGroup(g *h5obj.Group, depth int) error {
	indent := strings.Repeat("  ", depth+1)

	printAttrs(g.Attrs(), indent)

	datasets, err := g.SubDatasets()
	if err != nil {
		return err
	}
	for _, name := range datasets {
		ds, err := g.Dataset(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s%s  %s %s\n", indent, name, shape(ds.Dims()), elemType(ds))
		printAttrs(ds.Attrs(), indent+"  ")
		if err := ds.Close(); err != nil {
			return err
		}
	}

	groups, err := g.SubGroups()
	if err != nil {
		return err
	}
	for _, name := range groups {
		child, err := g.Group(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s%s/\n", indent, name)
		if err := walkGroup(child, depth+1); err != nil {
			_ = child.Close()
			return err
		}
		if err := child.Close(); err != nil {
			return err
		}
	}
	return nil
}

func printAttrs(attrs *h5obj.Attrs, indent string) {
	names, err := attrs.Names()
	if err != nil {
		return
	}
	for _, name := range names {
		fmt.Printf("%s@%s\n", indent, name)
	}
}

func shape(dims []uint64) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "(" + strings.Join(parts, "x") + ")"
}

func elemType(ds *h5obj.Dataset) string {
	switch {
	case ds.IsInteger():
		return fmt.Sprintf("int%d", ds.TypeSize()*8)
	case ds.IsFloat():
		return fmt.Sprintf("float%d", ds.TypeSize()*8)
	default:
		return "opaque"
	}
}
