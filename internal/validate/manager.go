package validate

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/MrSnakeDoc/primsync/internal/logger"
	"github.com/MrSnakeDoc/primsync/internal/models"
	"github.com/MrSnakeDoc/primsync/internal/pipeline"
	"github.com/MrSnakeDoc/primsync/internal/store"
	"github.com/MrSnakeDoc/primsync/internal/utils"
)

// Validator checks synced dataset exports: every artifact must exist, be
// non-empty, and every line must be a well-formed JSON record. Schema
// semantics stay with the portal; this catches truncated or corrupted
// downloads.
type Validator struct {
	Store store.Store
}

func New(st store.Store) *Validator {
	return &Validator{Store: st}
}

func (v *Validator) Execute(ctx context.Context, datasets []models.Resource) (pipeline.Result, error) {
	var errs []error
	for _, res := range datasets {
		if err := v.validateOne(res); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.ID, err))
		}
	}
	if len(errs) > 0 {
		return pipeline.Failed, errors.Join(errs...)
	}
	return pipeline.Updated, nil
}

func (v *Validator) validateOne(res models.Resource) error {
	path := v.Store.ArtifactPath(res)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer utils.Close(f)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	records := 0
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		if !json.Valid(b) {
			return fmt.Errorf("line %d: malformed JSON record", line)
		}
		records++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	if records == 0 {
		return fmt.Errorf("no records in %s", path)
	}

	logger.Debug("dataset %s: %d records valid", res.ID, records)
	return nil
}
