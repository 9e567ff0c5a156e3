package metadata

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	toolboxerrors "github.com/opskit/toolbox/pkg/errors"
)

// ErrNoHeader is reported for files that carry no leading comment block.
var ErrNoHeader = errors.New("no metadata header")

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

// Extract parses the leading `--` comment block of a Lua plugin file as a
// YAML mapping and returns the resulting Metadata. The file's code is never
// loaded or evaluated; a plugin whose body would blow up on load is still
// perfectly discoverable as long as its header parses.
func Extract(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, toolboxerrors.NewParseError(path, 0, err)
	}
	defer f.Close()

	header, err := readHeader(f)
	if err != nil {
		return nil, toolboxerrors.NewParseError(path, 0, err)
	}

	var meta Metadata
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return nil, toolboxerrors.NewParseError(path, extractLine(err), err)
	}

	if err := Validate(&meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// readHeader collects the leading comment block as plain text. Blank lines
// may precede the block; the first non-comment line ends it.
func readHeader(f *os.File) (string, error) {
	var b strings.Builder
	seen := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "" && !seen {
			continue
		}
		if !strings.HasPrefix(trimmed, "--") {
			break
		}

		seen = true
		text := strings.TrimPrefix(trimmed, "--")
		text = strings.TrimPrefix(text, " ")
		b.WriteString(text)
		b.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	if !seen {
		return "", ErrNoHeader
	}
	return b.String(), nil
}

// Validate checks a parsed Metadata record against the plugin contract.
func Validate(meta *Metadata) error {
	if err := validatorInstance().Struct(meta); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return toolboxerrors.NewValidationError(strings.ToLower(fe.Field()), fmt.Sprintf("failed %q constraint", fe.Tag()), err)
		}
		return toolboxerrors.NewValidationError("", err.Error(), err)
	}

	for _, e := range meta.RequiredFiles.Entries() {
		if strings.TrimSpace(e.Key) == "" {
			return toolboxerrors.NewValidationError("required_files", "keys must not be empty", nil)
		}
	}
	for key := range meta.FileFilters {
		if _, ok := meta.RequiredFiles.Get(key); !ok {
			return toolboxerrors.NewValidationError("file_filters", fmt.Sprintf("filter for undeclared input %q", key), nil)
		}
	}

	return nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}
