// Package protocol parses the carpool line protocol.
//
// One command per line, case-sensitive, space-delimited:
//
//	get <key>
//	set <key> <value>
//	del <key>
//	prune | reset | count | size | keys
package protocol

import (
	"errors"
	"strings"
)

// Op identifies a command.
type Op int

const (
	OpNoop Op = iota
	OpGet
	OpSet
	OpDel
	OpPrune
	OpReset
	OpCount
	OpSize
	OpKeys
)

var opNames = [...]string{
	OpNoop:  "noop",
	OpGet:   "get",
	OpSet:   "set",
	OpDel:   "del",
	OpPrune: "prune",
	OpReset: "reset",
	OpCount: "count",
	OpSize:  "size",
	OpKeys:  "keys",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "unknown"
	}
	return opNames[o]
}

// Parse errors. Their messages are sent back to clients verbatim.
var (
	ErrKeyContainsSpace = errors.New("key cannot contain space")
	ErrNoValue          = errors.New("no value specified")
	ErrUnknownOperation = errors.New("operation not defined")
)

// Command is one parsed request line.
type Command struct {
	Op    Op
	Key   string
	Value string
}

var bareOps = map[string]Op{
	"prune": OpPrune,
	"reset": OpReset,
	"count": OpCount,
	"size":  OpSize,
	"keys":  OpKeys,
}

// Parse turns one line into a Command. Trailing line terminators are ignored.
func Parse(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")

	switch {
	case strings.TrimSpace(line) == "":
		return Command{Op: OpNoop}, nil
	case strings.HasPrefix(line, "get "):
		key, err := parseKey(line[len("get "):])
		if err != nil {
			return Command{}, err
		}
		return Command{Op: OpGet, Key: key}, nil
	case strings.HasPrefix(line, "del "):
		key, err := parseKey(line[len("del "):])
		if err != nil {
			return Command{}, err
		}
		return Command{Op: OpDel, Key: key}, nil
	case strings.HasPrefix(line, "set "):
		key, value, ok := strings.Cut(line[len("set "):], " ")
		if !ok {
			return Command{}, ErrNoValue
		}
		return Command{
			Op:    OpSet,
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		}, nil
	}

	if op, ok := bareOps[line]; ok {
		return Command{Op: op}, nil
	}
	return Command{}, ErrUnknownOperation
}

func parseKey(s string) (string, error) {
	key := strings.TrimSpace(s)
	if strings.Contains(key, " ") {
		return "", ErrKeyContainsSpace
	}
	return key, nil
}
