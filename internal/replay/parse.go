package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"monadAMM/internal/amm"
	"monadAMM/internal/model"
)

const maxLineBytes = 1 << 20

// Line is one non-blank line of an operation script. Number is 1-based and
// counts blank lines too, so it stays stable when a script is edited.
type Line struct {
	Number uint64
	Raw    []byte
	Op     model.Operation
	Err    error
}

// ReadLines parses every non-blank line of r. A line that is not a valid
// operation is kept with Err set so it can be reported in order.
func ReadLines(r io.Reader) ([]Line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines []Line
	var number uint64
	for scanner.Scan() {
		number++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		line := Line{Number: number, Raw: append([]byte(nil), raw...)}
		if err := json.Unmarshal(raw, &line.Op); err != nil {
			line.Err = fmt.Errorf("parse operation: %w", err)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read operations: %w", err)
	}
	return lines, nil
}

func parseAccount(field, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, input)
	}
	return common.HexToAddress(input), nil
}

func parseAmount(field, input string) (*uint256.Int, error) {
	amount, err := amm.ParseAmount(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return amount, nil
}

// parseOptional returns nil for an empty field.
func parseOptional(field, input string) (*uint256.Int, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	return parseAmount(field, input)
}
