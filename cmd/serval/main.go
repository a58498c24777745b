package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/wirevm/serval"
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/tree"
	"github.com/wirevm/serval/value"
)

func main() {
	var (
		schemaFile  = flag.String("schema", "", "Path to YAML schema file")
		typeName    = flag.String("type", "", "Root type to decode against")
		from        = flag.String("from", "text", "Input format: text, json, tree, wire")
		to          = flag.String("to", "json", "Output format: text, json, tree, wire")
		inFile      = flag.String("in", "", "Input file (default stdin)")
		outFile     = flag.String("out", "", "Output file (default stdout)")
		compress    = flag.Bool("z", false, "zstd-compress tree/wire output, decompress tree/wire input")
		indent      = flag.String("indent", "", "Indent string for JSON output")
		list        = flag.Bool("list", false, "List schema types and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *schemaFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: serval -schema <schema.yaml> -type <name> [-from fmt] [-to fmt] [-in file] [-out file]")
		fmt.Fprintln(os.Stderr, "       serval -schema <schema.yaml> -list")
		fmt.Fprintln(os.Stderr, "       serval -schema <schema.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*schemaFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*schemaFile, *typeName, *from, *to, *inFile, *outFile, *indent, *compress, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(schemaFile, typeName, from, to, inFile, outFile, indent string, compress, listOnly bool) error {
	schema, err := os.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	reg, err := registry.ParseSchema(schema)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	snap := reg.Snapshot()

	if listOnly {
		listTypes(snap)
		return nil
	}

	if typeName == "" {
		return fmt.Errorf("no -type given; use -list to see the schema")
	}
	typ, ok := snap.TypeByName(typeName)
	if !ok {
		return fmt.Errorf("type %s is not in the schema", typeName)
	}

	in, err := readInput(inFile, from, compress)
	if err != nil {
		return err
	}

	s := serval.New(reg)
	v, err := decode(s, typ, from, in)
	if err != nil {
		return fmt.Errorf("decode %s: %w", from, err)
	}
	defer s.Release(v)

	out, err := encode(s, typ, to, indent, v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", to, err)
	}
	return writeOutput(outFile, to, compress, out)
}

// binaryFormat reports whether a format name denotes one of the byte
// oriented formats that -z applies to.
func binaryFormat(format string) bool {
	return format == "tree" || format == "wire"
}

func readInput(inFile, from string, compress bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if inFile == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(inFile)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if compress && binaryFormat(from) {
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		data, err = io.ReadAll(dec)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
	}
	return data, nil
}

func writeOutput(outFile, to string, compress bool, data []byte) error {
	if compress && binaryFormat(to) {
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			return fmt.Errorf("zstd: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		data = buf.Bytes()
	}
	if outFile == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(outFile, data, 0o644)
}

func decode(s *serval.Session, typ registry.TypeID, from string, data []byte) (value.Value, error) {
	switch from {
	case "text":
		return s.ParseText(typ, string(data))
	case "json":
		return s.ParseJSON(typ, data)
	case "tree":
		n, err := tree.Unpack(data)
		if err != nil {
			return value.Nil(), err
		}
		return s.DecodeTree(typ, n)
	case "wire":
		return s.DecodeWire(typ, data)
	default:
		return value.Nil(), fmt.Errorf("unknown input format %q", from)
	}
}

func encode(s *serval.Session, typ registry.TypeID, to, indent string, v value.Value) ([]byte, error) {
	switch to {
	case "text":
		out, err := s.EncodeText(typ, v)
		if err != nil {
			return nil, err
		}
		return []byte(out + "\n"), nil
	case "json":
		out, err := s.EncodeJSON(typ, v, tree.JSONOptions{Indent: indent})
		if err != nil {
			return nil, err
		}
		return []byte(out + "\n"), nil
	case "tree":
		n, err := s.EncodeTree(typ, v)
		if err != nil {
			return nil, err
		}
		return tree.Pack(n), nil
	case "wire":
		return s.EncodeWire(typ, v)
	default:
		return nil, fmt.Errorf("unknown output format %q", to)
	}
}

func listTypes(snap *registry.Snapshot) {
	for _, name := range snap.NamedTypes() {
		id, _ := snap.TypeByName(name)
		ti := snap.Lookup(id)
		head := name + " (" + ti.Shape.String()
		if ti.SerID >= 0 {
			head += fmt.Sprintf(", ser %d", ti.SerID)
		}
		if ti.Super.Valid() {
			head += ", super " + snap.Name(ti.Super)
		}
		fmt.Println(head + ")")
		for _, f := range ti.Fields {
			fmt.Printf("  %s: %s\n", f.Name, fieldTypeStr(snap, f.Type))
		}
	}
}

func fieldTypeStr(snap *registry.Snapshot, t registry.TypeID) string {
	ti := snap.Lookup(t)
	if ti == nil {
		return "invalid"
	}
	switch ti.Shape {
	case registry.Vector:
		return "[" + fieldTypeStr(snap, ti.Elem) + "]"
	case registry.Nilable:
		return fieldTypeStr(snap, ti.Elem) + "?"
	default:
		return snap.Name(t)
	}
}
