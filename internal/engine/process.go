package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anexotools/anexocon/internal/anexo"
	"github.com/anexotools/anexocon/internal/consolidate"
	"github.com/anexotools/anexocon/internal/grid"
	"github.com/anexotools/anexocon/internal/registry"
	"github.com/anexotools/anexocon/internal/resolve"
	"github.com/anexotools/anexocon/internal/text"
	"github.com/anexotools/anexocon/internal/transfer"
)

// Remote folder layout under each contract folder.
const (
	tariffsFolder = "TARIFAS"
	minutesFolder = "ACTAS DE NEGOCIACIÓN"
)

const downloadStamp = "20060102_150405"

// Alert wording for contract-level navigation failures.
const (
	msgNoContractFolder = "Contract folder not found on remote store"
	msgNoTariffsFolder  = "Contract folder has no TARIFAS folder"
)

// ProcessContract runs the full pipeline for one contract on an
// already-dialed session: locate the contract folder, resolve and pull
// the base document, then the negotiation minutes, extract every
// document and consolidate into one workbook.
func (e *Engine) ProcessContract(ctx context.Context, client transfer.Client, c *registry.Contract) *ContractResult {
	started := e.now()
	res := &ContractResult{Contract: c.Number}
	log := resolve.NewAlertLog()
	defer func() {
		res.Alerts = log.All()
		res.Duration = e.now().Sub(started)
	}()

	logger := e.logger.With("contract", c.Number)

	folder, err := e.findContractFolder(ctx, client, c.Number)
	if err != nil {
		log.Add(resolve.SeverityError, c.Number, msgNoContractFolder)
		res.Err = err
		return res
	}
	logger.Debug("contract folder located", "folder", folder)

	tariffsPath := folder + "/" + tariffsFolder
	if err := client.ChangeDir(ctx, tariffsPath); err != nil {
		log.Add(resolve.SeverityError, c.Number, msgNoTariffsFolder)
		res.Err = fmt.Errorf("failed to open tariffs folder for %s: %w", c.Number, err)
		return res
	}

	listing, err := client.List(ctx)
	if err != nil {
		log.Add(resolve.SeverityError, c.Number, "Could not list TARIFAS folder")
		res.Err = fmt.Errorf("failed to list tariffs folder for %s: %w", c.Number, err)
		return res
	}

	workDir := filepath.Join(e.cfg.WorkDir, c.Number)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		res.Err = fmt.Errorf("failed to create work dir: %w", err)
		return res
	}
	if !e.cfg.KeepDownloads {
		defer os.RemoveAll(workDir)
	}

	var docs []consolidate.Document

	base, baseErr := resolve.ResolveBase(listing.Files(), c, log)
	hasBase := false
	if baseErr == nil {
		doc, ok := e.fetchDocument(ctx, client, workDir, c, *base, log, logger)
		if ok {
			docs = append(docs, doc)
			hasBase = true
		}
	} else {
		logger.Warn("no base document", "error", baseErr)
	}

	// Negotiation minutes live in a subfolder that many contracts
	// simply do not have; its absence is not an alert.
	if err := client.ChangeDir(ctx, minutesFolder); err == nil {
		minListing, err := client.List(ctx)
		if err != nil {
			log.Add(resolve.SeverityError, c.Number, "Could not list negotiation-minutes folder")
			res.Err = fmt.Errorf("failed to list minutes folder for %s: %w", c.Number, err)
			return res
		}
		selections := resolve.ResolveMinutes(minListing.Files(), c, hasBase, log)
		var processed []int
		for _, sel := range selections {
			doc, ok := e.fetchDocument(ctx, client, workDir, c, sel, log, logger)
			if !ok {
				continue
			}
			docs = append(docs, doc)
			processed = append(processed, sel.Number)
		}
		resolve.DetectGaps(c, processed, log)
	}

	res.Documents = len(docs)
	res.Records = consolidate.Consolidate(docs, c)
	if len(res.Records) == 0 {
		logger.Warn("no records consolidated")
		return res
	}

	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		res.Err = fmt.Errorf("failed to create output dir: %w", err)
		return res
	}
	out := filepath.Join(e.cfg.OutputDir, consolidate.OutputFilename(c.Number, e.now()))
	if err := consolidate.WriteWorkbook(out, res.Records); err != nil {
		res.Err = fmt.Errorf("failed to write workbook for %s: %w", c.Number, err)
		return res
	}
	res.OutputPath = out
	logger.Info("contract consolidated", "records", len(res.Records), "output", out)
	return res
}

// findContractFolder scans the remote root for the folder whose name
// contains the contract number (folded comparison). When no direct
// child matches, a bounded recursive search runs before giving up;
// some providers nest their contract folders one level down.
func (e *Engine) findContractFolder(ctx context.Context, client transfer.Client, number string) (string, error) {
	if err := client.ChangeDir(ctx, e.cfg.RemoteRoot); err != nil {
		return "", fmt.Errorf("failed to open remote root: %w", err)
	}
	listing, err := client.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list remote root: %w", err)
	}
	want := text.Fold(number)
	for _, dir := range listing.Dirs() {
		if strings.Contains(text.Fold(dir), want) {
			return dir, nil
		}
	}

	found, err := client.Search(ctx, number, transfer.DefaultSearchOptions())
	if err == nil {
		for _, m := range found.Matches {
			if m.IsDir {
				return m.Path, nil
			}
		}
	}
	return "", fmt.Errorf("no folder for contract %s under %s", number, e.cfg.RemoteRoot)
}

// fetchDocument downloads one selected document into the contract's
// work dir, reads and validates it, and extracts its tariff content.
// File-level failures produce a warning alert and a false return; the
// contract keeps going.
func (e *Engine) fetchDocument(ctx context.Context, client transfer.Client, workDir string, c *registry.Contract, sel resolve.Selection, log *resolve.AlertLog, logger *slog.Logger) (consolidate.Document, bool) {
	local := filepath.Join(workDir, localName(c.Number, sel, e.now()))
	if err := client.Download(ctx, sel.Filename, local); err != nil {
		log.Add(resolve.SeverityWarning, c.Number, fmt.Sprintf("Could not download %s", sel.Filename))
		logger.Warn("download failed", "file", sel.Filename, "error", err)
		return consolidate.Document{}, false
	}

	g, _, err := grid.Read(local)
	if err != nil {
		log.Add(resolve.SeverityWarning, c.Number, fmt.Sprintf("Could not read %s", sel.Filename))
		logger.Warn("read failed", "file", sel.Filename, "error", err)
		return consolidate.Document{}, false
	}

	if v := anexo.Validate(g, sel.Filename); !v.Valid {
		log.Add(resolve.SeverityWarning, c.Number, v.Reason)
		logger.Warn("validation failed", "file", sel.Filename, "reason", v.Reason)
		return consolidate.Document{}, false
	}

	result, err := anexo.Extract(g)
	if err != nil {
		log.Add(resolve.SeverityWarning, c.Number, fmt.Sprintf("Could not extract tariffs from %s", sel.Filename))
		logger.Warn("extraction failed", "file", sel.Filename, "error", err)
		return consolidate.Document{}, false
	}

	return consolidate.Document{Selection: sel, Result: result}, true
}

// localName builds the download filename
// <contract>_<kind>_<number>_<timestamp><ext>.
func localName(contract string, sel resolve.Selection, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(sel.Filename))
	return fmt.Sprintf("%s_%s_%d_%s%s", contract, sel.Kind, sel.Number, now.Format(downloadStamp), ext)
}
