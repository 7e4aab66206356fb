package engine

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/anexotools/anexocon/internal/anexo"
	"github.com/anexotools/anexocon/internal/consolidate"
	"github.com/anexotools/anexocon/internal/grid"
	"github.com/anexotools/anexocon/internal/registry"
	"github.com/anexotools/anexocon/internal/resolve"
	"github.com/anexotools/anexocon/internal/state"
)

// RunBatch processes the given contracts and records each outcome in
// the store. With Workers > 1 the contracts fan out over that many
// remote sessions; results keep the input order. The returned error
// covers infrastructure failures only, per-contract failures live in
// the results.
func (e *Engine) RunBatch(ctx context.Context, contracts []*registry.Contract) ([]*ContractResult, error) {
	if len(contracts) == 0 {
		return nil, nil
	}

	results := make([]*ContractResult, len(contracts))

	workers := e.cfg.Workers
	if workers <= 1 || len(contracts) == 1 {
		client, err := e.dialer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to dial remote store: %w", err)
		}
		defer client.Close()

		for i, c := range contracts {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			results[i] = e.ProcessContract(ctx, client, c)
			e.record(ctx, results[i])
		}
		return results, nil
	}

	if workers > len(contracts) {
		workers = len(contracts)
	}

	type job struct {
		idx      int
		contract *registry.Contract
	}
	jobs := make(chan job)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			client, err := e.dialer(gctx)
			if err != nil {
				return fmt.Errorf("failed to dial remote store: %w", err)
			}
			defer client.Close()

			for j := range jobs {
				results[j.idx] = e.ProcessContract(gctx, client, j.contract)
				e.record(gctx, results[j.idx])
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for i, c := range contracts {
			select {
			case jobs <- job{idx: i, contract: c}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// ProcessFile runs the extraction pipeline on a local spreadsheet,
// skipping the transfer layer entirely. The outcome is recorded like
// any contract run, keyed by the file's name.
func (e *Engine) ProcessFile(ctx context.Context, path string) (*ContractResult, error) {
	started := e.now()
	name := filepath.Base(path)
	res := &ContractResult{Contract: name}
	log := resolve.NewAlertLog()
	defer func() {
		res.Alerts = log.All()
		res.Duration = e.now().Sub(started)
		e.recordKind(ctx, res, "file")
	}()

	g, _, err := grid.Read(path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read %s: %w", name, err)
		return res, res.Err
	}

	if v := anexo.Validate(g, name); !v.Valid {
		log.Add(resolve.SeverityError, name, v.Reason)
		res.Err = &anexo.ValidationError{Filename: name, Reason: v.Reason}
		return res, res.Err
	}

	result, err := anexo.Extract(g)
	if err != nil {
		res.Err = fmt.Errorf("failed to extract tariffs from %s: %w", name, err)
		return res, res.Err
	}

	doc := consolidate.Document{
		Selection: resolve.Selection{Filename: name, Kind: resolve.KindInitial},
		Result:    result,
	}
	res.Documents = 1
	res.Records = consolidate.Consolidate([]consolidate.Document{doc}, &registry.Contract{Number: name})

	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		res.Err = fmt.Errorf("failed to create output dir: %w", err)
		return res, res.Err
	}
	base := name[:len(name)-len(filepath.Ext(name))]
	out := filepath.Join(e.cfg.OutputDir, consolidate.OutputFilename(base, e.now()))
	if err := consolidate.WriteWorkbook(out, res.Records); err != nil {
		res.Err = fmt.Errorf("failed to write workbook: %w", err)
		return res, res.Err
	}
	res.OutputPath = out
	return res, nil
}

// record persists a contract result and its alert trail.
func (e *Engine) record(ctx context.Context, res *ContractResult) {
	e.recordKind(ctx, res, "contract")
}

func (e *Engine) recordKind(ctx context.Context, res *ContractResult, kind string) {
	if e.store == nil {
		return
	}
	p := state.Process{
		Kind:     kind,
		User:     currentUser(),
		Subject:  res.Contract,
		Records:  len(res.Records),
		Success:  res.Succeeded(),
		Started:  e.now().Add(-res.Duration),
		Duration: res.Duration,
	}
	if res.Err != nil {
		p.Error = res.Err.Error()
	}
	id, err := e.store.RecordProcess(ctx, p)
	if err != nil {
		e.logger.Warn("failed to record process", "subject", res.Contract, "error", err)
		return
	}
	if err := e.store.RecordAlerts(ctx, id, res.Alerts); err != nil {
		e.logger.Warn("failed to record alerts", "subject", res.Contract, "error", err)
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}
