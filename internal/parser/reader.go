package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/pgzip"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	apperrors "github.com/kurihiro0119/orthopairs/internal/errors"
	"github.com/kurihiro0119/orthopairs/internal/metrics"
)

const maxLineBytes = 1 << 20

// Stats counts dump lines by Result
type Stats map[Result]int

// Add merges other into s
func (s Stats) Add(other Stats) {
	for k, v := range other {
		s[k] += v
	}
}

// Parser streams dump files and hands accepted records to a callback
type Parser struct {
	filter  Filter
	logger  *slog.Logger
	metrics *metrics.Registry
}

// New creates a parser. logger and reg may be nil.
func New(filter Filter, logger *slog.Logger, reg *metrics.Registry) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{filter: filter, logger: logger, metrics: reg}
}

// ParseFile opens path, transparently decompressing .gz files, and parses it.
func (p *Parser) ParseFile(ctx context.Context, path string, emit func(domain.OrthologRecord)) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("failed to open ortholog file %s", path), err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("failed to open gzip stream %s", path), err)
		}
		defer gz.Close()
		r = gz
	}
	return p.Parse(ctx, path, r, emit)
}

// Parse reads r line by line. A malformed line stops the parse with an
// INVALID_INPUT error naming the source and line number.
func (p *Parser) Parse(ctx context.Context, name string, r io.Reader, emit func(domain.OrthologRecord)) (Stats, error) {
	p.logger.Info("parsing ortholog file", "file", name, "source", p.filter.SourceTag, "targets", len(p.filter.TargetTags))

	stats := Stats{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		record, result, err := ParseLine(scanner.Text(), p.filter)
		if err != nil {
			return stats, apperrors.NewInvalidInputError(fmt.Sprintf("%s:%d: malformed ortholog line", name, lineNo), err)
		}
		stats[result]++
		if p.metrics != nil {
			p.metrics.RecordDumpLine(string(result))
		}
		if result == ResultAccepted {
			emit(record)
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, apperrors.NewInvalidInputError(fmt.Sprintf("%s: failed reading after line %d", name, lineNo), err)
	}

	p.logger.Info("parsed ortholog file", "file", name, "lines", lineNo, "accepted", stats[ResultAccepted])
	return stats, nil
}
