package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/txfile"
	"github.com/roach88/cruxtx/internal/txlog"
)

// RejectDetails describes why a transaction file was rejected.
type RejectDetails struct {
	Step      *int   `json:"step,omitempty"`
	Code      string `json:"code,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Identity  string `json:"identity,omitempty"`
	Positions []int  `json:"positions,omitempty"`
}

// loadLog reads, parses and builds the transaction file at path. Failures
// are reported through f and returned as ExitErrors.
func loadLog(f *OutputFormatter, path string) (*txlog.Log, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, "file not found: "+path, nil, nil)
	} else if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeReadFailed, "failed to read "+path, err, nil)
	}

	file, err := txfile.Load(path)
	if err != nil {
		return nil, f.Fail(ExitFailure, ErrCodeParse, "failed to load transaction file", err, nil)
	}
	f.VerboseLog("Loaded %d ops from %s", len(file.Steps), path)

	log, err := file.Build()
	if err != nil {
		var details any
		if d := rejectDetails(err); d != nil {
			details = d
		}
		return nil, f.Fail(ExitFailure, ErrCodeInvalidTx, "transaction rejected", err, details)
	}
	return log, nil
}

// rejectDetails extracts the step index and tx error fields from err.
func rejectDetails(err error) *RejectDetails {
	var d RejectDetails
	found := false

	var stepErr *txfile.StepError
	if errors.As(err, &stepErr) {
		idx := stepErr.Index
		d.Step = &idx
		d.Kind = stepErr.Kind
		found = true
	}

	var txErr *tx.Error
	if errors.As(err, &txErr) {
		d.Code = string(txErr.Code)
		if txErr.Kind != 0 {
			d.Kind = txErr.Kind.String()
		}
		d.Identity = txErr.Identity
		d.Positions = txErr.Positions
		found = true
	}

	if !found {
		return nil
	}
	return &d
}
