package script

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/expr-lang/expr"

	"github.com/opskit/toolbox/internal/logger"
)

// registerBuiltins installs the host functions report scripts are written
// against: CSV table IO, row-level predicate checks and small path helpers.
func registerBuiltins(l *lua.State, log *logger.Logger) {
	l.Register("csv_read", csvRead)
	l.Register("csv_write", csvWrite)
	l.Register("rows_check", rowsCheck)
	l.Register("basename", func(l *lua.State) int {
		l.PushString(filepath.Base(lua.CheckString(l, 1)))
		return 1
	})
	l.Register("with_name", func(l *lua.State) int {
		path := lua.CheckString(l, 1)
		name := lua.CheckString(l, 2)
		l.PushString(filepath.Join(filepath.Dir(path), name))
		return 1
	})
	l.Register("with_suffix", func(l *lua.State) int {
		path := lua.CheckString(l, 1)
		suffix := lua.CheckString(l, 2)
		l.PushString(strings.TrimSuffix(path, filepath.Ext(path)) + suffix)
		return 1
	})
	l.Register("log", func(l *lua.State) int {
		log.Info(lua.CheckString(l, 1))
		return 0
	})
}

// csvRead loads a CSV file into {columns = {...}, rows = {{col = val}, ...}}.
// Every cell comes back as a string; coercion is the script's business.
func csvRead(l *lua.State) int {
	path := lua.CheckString(l, 1)

	f, err := os.Open(path)
	if err != nil {
		lua.Errorf(l, "csv_read: %s", err.Error())
		return 0
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		lua.Errorf(l, "csv_read: %s: %s", path, err.Error())
		return 0
	}
	if len(records) == 0 {
		lua.Errorf(l, "csv_read: %s: empty file", path)
		return 0
	}

	columns := records[0]
	rows := make([]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	l.NewTable()
	pushValue(l, columns)
	l.SetField(-2, "columns")
	pushValue(l, rows)
	l.SetField(-2, "rows")
	return 1
}

// csvWrite writes columns and rows out as a CSV artifact and returns the
// path it wrote.
func csvWrite(l *lua.State) int {
	path := lua.CheckString(l, 1)
	lua.CheckType(l, 2, lua.TypeTable)
	lua.CheckType(l, 3, lua.TypeTable)

	columns, ok := pullStringSlice(l, 2)
	if !ok {
		lua.Errorf(l, "csv_write: columns must be a list of strings")
		return 0
	}
	rawRows, _ := pullValue(l, 3).([]any)

	f, err := os.Create(path)
	if err != nil {
		lua.Errorf(l, "csv_write: %s", err.Error())
		return 0
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(columns); err != nil {
		lua.Errorf(l, "csv_write: %s", err.Error())
		return 0
	}
	for _, raw := range rawRows {
		row, _ := raw.(map[string]any)
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = stringify(row[col])
		}
		if err := writer.Write(record); err != nil {
			lua.Errorf(l, "csv_write: %s", err.Error())
			return 0
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		lua.Errorf(l, "csv_write: %s", err.Error())
		return 0
	}

	l.PushString(path)
	return 1
}

// rowsCheck evaluates a predicate over every row and returns the rows that
// violate it as {{row = n, error = label}, ...}. The expression must hold
// for a row to pass; evaluation errors count as violations so a missing
// column surfaces in the report instead of silently passing.
func rowsCheck(l *lua.State) int {
	lua.CheckType(l, 1, lua.TypeTable)
	expression := lua.CheckString(l, 2)
	label := lua.CheckString(l, 3)

	rawRows, _ := pullValue(l, 1).([]any)

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		lua.Errorf(l, "rows_check: bad expression %q: %s", expression, err.Error())
		return 0
	}

	violations := make([]any, 0)
	for i, raw := range rawRows {
		env, _ := raw.(map[string]any)
		if env == nil {
			env = map[string]any{}
		}

		out, err := expr.Run(program, env)
		if err != nil {
			violations = append(violations, map[string]any{
				"row":    i + 1,
				"error":  label,
				"detail": err.Error(),
			})
			continue
		}
		if ok, _ := out.(bool); !ok {
			violations = append(violations, map[string]any{
				"row":   i + 1,
				"error": label,
			})
		}
	}

	pushValue(l, violations)
	return 1
}

func pullStringSlice(l *lua.State, idx int) ([]string, bool) {
	raw, _ := pullValue(l, idx).([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// Avoid 1.000000 noise for whole numbers coming back from Lua.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}
