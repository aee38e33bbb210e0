package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/viant/arrayfile/container"
	"github.com/viant/arrayfile/ndarray"
	"github.com/viant/arrayfile/storage"
)

type fileFlags struct {
	file   *string
	config *string
}

func newFlags(name string) (*flag.FlagSet, *fileFlags) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	ret := &fileFlags{
		file:   flags.String("file", "", "container file path (required)"),
		config: flags.String("config", "", "manager config yaml (optional)"),
	}
	return flags, ret
}

func (f *fileFlags) manager() (*storage.Manager, error) {
	if *f.file == "" {
		return nil, errors.New("--file is required")
	}
	options := []storage.Option{storage.WithLogger(slog.Default())}
	if *f.config != "" {
		cfg, err := storage.LoadConfig(*f.config)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		cfgOptions, err := cfg.Options()
		if err != nil {
			return nil, err
		}
		options = append(options, cfgOptions...)
	}
	folder, name := filepath.Split(*f.file)
	if folder == "" {
		folder = "."
	}
	return storage.New(folder, name, options...)
}

func initCmd(ctx context.Context, args []string, out io.Writer) error {
	flags, fileArgs := newFlags("init")
	gid := flags.String("gid", "", "gid to stamp (default: a new uuid)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	m, err := fileArgs.manager()
	if err != nil {
		return err
	}
	if m.IsValidContainer() {
		return fmt.Errorf("%s already exists", m.Path())
	}
	if *gid == "" {
		*gid = uuid.NewString()
	}
	if err := m.SetMetadata(ctx, map[string]any{storage.GIDKey: *gid}, ""); err != nil {
		return err
	}
	fmt.Fprintf(out, "created %s gid=%s\n", m.Path(), *gid)
	return nil
}

func infoCmd(ctx context.Context, args []string, out io.Writer) error {
	flags, fileArgs := newFlags("info")
	if err := flags.Parse(args); err != nil {
		return err
	}
	m, err := fileArgs.manager()
	if err != nil {
		return err
	}
	valid := m.IsValidContainer()
	fmt.Fprintf(out, "path:    %s\nvalid:   %v\n", m.Path(), valid)
	if !valid {
		return nil
	}
	version, err := m.FileVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "version: %v\n", version)
	if gid, err := m.GID(ctx); err == nil {
		fmt.Fprintf(out, "gid:     %v\n", gid)
	} else if !errors.Is(err, storage.ErrIncompatible) {
		return err
	}
	nodes, err := m.Nodes(ctx, container.RootPath)
	if err != nil {
		return err
	}
	datasets := 0
	for _, node := range nodes {
		if node.Kind == container.KindDataset {
			datasets++
		}
	}
	fmt.Fprintf(out, "nodes:   %d (%d datasets)\n", len(nodes), datasets)
	return nil
}

func lsCmd(ctx context.Context, args []string, out io.Writer) error {
	flags, fileArgs := newFlags("ls")
	where := flags.String("where", container.RootPath, "subtree to list")
	if err := flags.Parse(args); err != nil {
		return err
	}
	m, err := fileArgs.manager()
	if err != nil {
		return err
	}
	nodes, err := m.Nodes(ctx, *where)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		if node.Kind == container.KindGroup {
			fmt.Fprintf(out, "%s/\n", strings.TrimSuffix(node.Path, "/"))
			continue
		}
		h := node.Header
		fmt.Fprintf(out, "%s %s shape=%v max=%s chunk=%v codec=%s\n", node.Path, h.DType, h.Shape, formatMax(h.MaxShape), h.Chunk, h.Codec)
	}
	return nil
}

func formatMax(shape []int) string {
	parts := make([]string, len(shape))
	for i, dim := range shape {
		if dim == container.Unlimited {
			parts[i] = "inf"
		} else {
			parts[i] = strconv.Itoa(dim)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func metaCmd(ctx context.Context, args []string, out io.Writer) error {
	flags, fileArgs := newFlags("meta")
	node := flags.String("node", "", "node path (default: root)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	m, err := fileArgs.manager()
	if err != nil {
		return err
	}
	metadata, err := m.GetMetadata(ctx, *node)
	if err != nil {
		return err
	}
	doc := make(map[string]any, len(metadata))
	for key, value := range metadata {
		doc[key] = value.Interface()
	}
	return writeJSON(out, doc)
}

func setMetaCmd(ctx context.Context, args []string, out io.Writer) error {
	flags, fileArgs := newFlags("set-meta")
	node := flags.String("node", "", "node path (default: root)")
	raw := flags.Bool("raw", false, "store keys without the namespace prefix")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return errors.New("expected key=value arguments")
	}
	entries := map[string]any{}
	for _, arg := range flags.Args() {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid entry %q, expected key=value", arg)
		}
		entries[key] = parseValue(value)
	}
	m, err := fileArgs.manager()
	if err != nil {
		return err
	}
	var opts []storage.CallOption
	if *raw {
		opts = append(opts, storage.Raw())
	}
	if err := m.SetMetadata(ctx, entries, *node, opts...); err != nil {
		return err
	}
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fmt.Fprintf(out, "set %s\n", strings.Join(keys, ", "))
	return nil
}

// parseValue maps a command line literal onto the closest metadata type.
func parseValue(s string) any {
	switch s {
	case "null":
		return nil
	case "true", "True":
		return true
	case "false", "False":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

type arrayDoc struct {
	Dataset string    `json:"dataset"`
	DType   string    `json:"dtype"`
	Shape   []int     `json:"shape"`
	Values  []float64 `json:"values"`
}

func readCmd(ctx context.Context, args []string, out io.Writer) error {
	flags, fileArgs := newFlags("read")
	dataset := flags.String("dataset", "", "dataset path (required)")
	rows := flags.String("rows", "", "row range start:stop along the first axis")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *dataset == "" {
		return errors.New("--dataset is required")
	}
	m, err := fileArgs.manager()
	if err != nil {
		return err
	}
	var opts []storage.CallOption
	if *rows != "" {
		r, err := parseRange(*rows)
		if err != nil {
			return err
		}
		opts = append(opts, storage.WithSelection(r))
	}
	arr, err := m.Read(ctx, *dataset, opts...)
	if err != nil {
		return err
	}
	return writeJSON(out, arrayDoc{
		Dataset: container.CleanPath(*dataset),
		DType:   arr.DType().String(),
		Shape:   arr.Shape(),
		Values:  arr.Float64s(),
	})
}

func parseRange(s string) (ndarray.Range, error) {
	startText, stopText, ok := strings.Cut(s, ":")
	if !ok {
		return ndarray.Range{}, fmt.Errorf("invalid range %q, expected start:stop", s)
	}
	ret := ndarray.All()
	var err error
	if startText != "" {
		if ret.Start, err = strconv.Atoi(startText); err != nil {
			return ndarray.Range{}, fmt.Errorf("invalid range start %q: %w", startText, err)
		}
	}
	if stopText != "" {
		if ret.Stop, err = strconv.Atoi(stopText); err != nil {
			return ndarray.Range{}, fmt.Errorf("invalid range stop %q: %w", stopText, err)
		}
	}
	return ret, nil
}

func rmCmd(ctx context.Context, args []string, out io.Writer) error {
	flags, fileArgs := newFlags("rm")
	dataset := flags.String("dataset", "", "node path (required)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *dataset == "" {
		return errors.New("--dataset is required")
	}
	m, err := fileArgs.manager()
	if err != nil {
		return err
	}
	if err := m.Remove(ctx, *dataset); err != nil {
		return err
	}
	fmt.Fprintf(out, "removed %s\n", container.CleanPath(*dataset))
	return nil
}

func backupCmd(ctx context.Context, args []string, out io.Writer) error {
	flags, fileArgs := newFlags("backup")
	dest := flags.String("dest", "", "destination path or URL (required)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *dest == "" {
		return errors.New("--dest is required")
	}
	m, err := fileArgs.manager()
	if err != nil {
		return err
	}
	if err := m.Backup(ctx, *dest); err != nil {
		return err
	}
	fmt.Fprintf(out, "copied %s to %s\n", m.Path(), *dest)
	return nil
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
