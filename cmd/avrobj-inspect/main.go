// Command avrobj-inspect prints the schema and records of Avro object
// container files.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/grafana/avrobj/avro"
	"github.com/grafana/avrobj/rowdata"
)

func main() {
	var (
		app        = kingpin.New("avrobj-inspect", "Inspect Avro object container files.")
		files      = app.Arg("file", "Container files to inspect.").Required().ExistingFiles()
		limit      = app.Flag("limit", "Maximum number of records to print per file (0 prints all).").Default("10").Int()
		schemaOnly = app.Flag("schema-only", "Print only file metadata and schema.").Bool()
		verbose    = app.Flag("verbose", "Enable debug logging.").Short('v').Bool()
	)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if !*verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	failed := false
	for _, name := range *files {
		if err := inspect(logger, name, *limit, *schemaOnly); err != nil {
			level.Error(logger).Log("msg", "inspect failed", "file", name, "err", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func inspect(logger log.Logger, name string, limit int, schemaOnly bool) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	cr, err := avro.NewContainerReader(f, avro.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = cr.Close() }()

	fmt.Printf("%s: %s, codec=%s\n", name, humanize.Bytes(uint64(fi.Size())), cr.Codec())
	fmt.Printf("schema: %s\n", cr.Metadata()["avro.schema"])
	if schemaOnly {
		return nil
	}

	for i := 0; limit == 0 || i < limit; i++ {
		v, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Printf("%d: %s\n", i, formatValue(v))
	}
	return nil
}

func formatValue(v rowdata.Value) string {
	switch v.Type() {
	case rowdata.TypeNull:
		return "null"
	case rowdata.TypeBool:
		return strconv.FormatBool(v.Bool())
	case rowdata.TypeInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case rowdata.TypeFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case rowdata.TypeString:
		return strconv.Quote(v.String())
	case rowdata.TypeByteArray:
		return fmt.Sprintf("0x%x", v.ByteArray())
	case rowdata.TypeDecimal:
		return v.Decimal().String()
	case rowdata.TypeList:
		l := v.List()
		parts := make([]string, len(l.Values))
		for i, e := range l.Values {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case rowdata.TypeMap:
		m := v.Map()
		parts := make([]string, len(m.Keys))
		for i := range m.Keys {
			parts[i] = formatValue(m.Keys[i]) + ": " + formatValue(m.Values[i])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case rowdata.TypeRow:
		row, ok := v.Row().(*rowdata.MemoryRow)
		if !ok {
			return "<row>"
		}
		parts := make([]string, len(row.Values))
		for i, f := range row.Values {
			parts[i] = formatValue(f)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return v.Type().String()
	}
}
