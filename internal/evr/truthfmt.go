package evr

import (
	"strconv"
	"strings"

	"github.com/alxayo/go-evrgen/internal/dictionary"
	generrors "github.com/alxayo/go-evrgen/internal/errors"
)

const (
	metadataKeysFatal    = "[(AddressStack),(CategorySequenceId),(SequenceId),(TaskName)]"
	metadataKeysNonFatal = "[(CategorySequenceId),(SequenceId),(TaskName)]"
	noArgumentsLine      = "No arguments"
)

// writeTruth appends the metadata line and the argument line for one body.
// An empty metadata list renders both key and value lists as [].
func (g *BodyGenerator) writeTruth(def *dictionary.Definition, metadata []string, fatal bool, args []string) error {
	if err := g.sink.WriteLine(evrTruthLine(def, metadata, fatal)); err != nil {
		return generrors.NewSinkError("truth.evr", err)
	}
	if err := g.sink.WriteLine(argumentTruthLine(args)); err != nil {
		return generrors.NewSinkError("truth.arguments", err)
	}
	return nil
}

func evrTruthLine(def *dictionary.Definition, metadata []string, fatal bool) string {
	var sb strings.Builder
	sb.WriteString("EVR: ")
	sb.WriteString(def.Name)
	sb.WriteByte(',')
	sb.WriteString(def.Level)
	sb.WriteByte(',')
	sb.WriteString(strconv.FormatUint(uint64(def.ID), 10))
	sb.WriteByte(',')
	sb.WriteString(metadataKeys(metadata, fatal))
	sb.WriteByte(',')
	sb.WriteString(metadataValues(metadata))
	return sb.String()
}

func metadataKeys(md []string, fatal bool) string {
	switch {
	case len(md) == 0:
		return "[]"
	case fatal:
		return metadataKeysFatal
	default:
		return metadataKeysNonFatal
	}
}

func metadataValues(md []string) string {
	if len(md) == 0 {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range md {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('(')
		sb.WriteString(v)
		sb.WriteByte(')')
	}
	sb.WriteByte(']')
	return sb.String()
}

func argumentTruthLine(args []string) string {
	if len(args) == 0 {
		return noArgumentsLine
	}
	return "Arguments: " + strings.Join(args, ",")
}

func trimTaskName(s string) string { return strings.TrimSpace(s) }
