package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"claimguard/internal/claims"
	"claimguard/internal/config"
	"claimguard/internal/faults"
	"claimguard/internal/logging"
	"claimguard/internal/store"
)

// failedDirName is the archive subdirectory holding rejected documents.
const failedDirName = "failed"

// Ingestor moves claim documents from the intake spool into the archive and
// registers pending claims for the workflow to analyze. Undecodable documents
// are parked in the failed spool next to a reason file; transient failures
// leave the document in place so a later scan retries it.
type Ingestor struct {
	st         *store.Store
	intakeDir  string
	archiveDir string
	failedDir  string
	log        *slog.Logger
}

// NewIngestor builds an ingestor over the configured spool directories. A nil
// logger disables logging.
func NewIngestor(st *store.Store, cfg *config.Config, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ingestor{
		st:         st,
		intakeDir:  cfg.Paths.IntakeDir,
		archiveDir: cfg.Paths.ArchiveDir,
		failedDir:  filepath.Join(cfg.Paths.ArchiveDir, failedDirName),
		log:        logging.NewComponentLogger(logger, "intake"),
	}
}

// Ingest decodes one document, archives it, and registers a pending claim.
// Re-ingesting a document with the same claim identity requeues the claim for
// analysis.
func (i *Ingestor) Ingest(ctx context.Context, path string) (*claims.Claim, error) {
	extracted, err := DecodeDocument(path)
	if err != nil {
		if errors.Is(err, faults.ErrInput) {
			i.parkFailed(path, err)
		}
		return nil, err
	}

	claim := extracted.ToClaim(time.Now().UTC())

	if err := os.MkdirAll(i.archiveDir, 0o755); err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "intake", "archive_document", "could not create archive directory", err)
	}
	target := uniquePath(filepath.Join(i.archiveDir, filepath.Base(path)))
	if err := moveFile(path, target); err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "intake", "archive_document", "could not archive document", err)
	}
	claim.SourcePath = target

	if err := i.st.SaveClaim(ctx, &claim); err != nil {
		// Put the document back so the next scan retries it.
		if moveErr := moveFile(target, path); moveErr != nil {
			logging.ErrorWithContext(i.log, "document stranded in archive", "intake_stranded",
				logging.String("path", target),
				logging.Error(moveErr))
		}
		return nil, faults.Wrap(faults.ErrStore, "intake", "register_claim", "could not register pending claim", err)
	}

	i.log.Info("claim ingested",
		logging.String(logging.FieldClaimID, claim.ID),
		logging.String("document", filepath.Base(path)),
		logging.String("archived_as", target))
	return &claim, nil
}

// ScanSpool ingests every document already sitting in the intake directory,
// in name order, and returns the number of claims registered. Bad documents
// are parked and skipped; a store failure aborts the scan.
func (i *Ingestor) ScanSpool(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(i.intakeDir)
	if err != nil {
		return 0, faults.Wrap(faults.ErrTransient, "intake", "scan_spool", "could not read intake directory", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !isClaimDocument(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	count := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if _, err := i.Ingest(ctx, filepath.Join(i.intakeDir, name)); err != nil {
			if errors.Is(err, faults.ErrStore) {
				return count, err
			}
			continue
		}
		count++
	}
	return count, nil
}

// parkFailed moves a rejected document into the failed spool and writes a
// reason file beside it.
func (i *Ingestor) parkFailed(path string, cause error) {
	if err := os.MkdirAll(i.failedDir, 0o755); err != nil {
		logging.ErrorWithContext(i.log, "could not create failed spool", "intake_park_failed",
			logging.String("dir", i.failedDir),
			logging.Error(err))
		return
	}
	target := uniquePath(filepath.Join(i.failedDir, filepath.Base(path)))
	if err := moveFile(path, target); err != nil {
		logging.ErrorWithContext(i.log, "could not park rejected document", "intake_park_failed",
			logging.String("path", path),
			logging.Error(err))
		return
	}
	reason := target + ".reason.txt"
	if err := os.WriteFile(reason, []byte(cause.Error()+"\n"), 0o644); err != nil {
		logging.ErrorWithContext(i.log, "could not write reason file", "intake_park_failed",
			logging.String("path", reason),
			logging.Error(err))
	}
	logging.WarnWithContext(i.log, "document rejected", "intake_rejected",
		logging.String("document", filepath.Base(path)),
		logging.String("parked_as", target),
		logging.Error(cause))
}

// isClaimDocument reports whether the file name looks like an extraction
// document the spool should process.
func isClaimDocument(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".json")
}

// uniquePath returns path if free, otherwise the first -1, -2... suffixed
// variant that is.
func uniquePath(path string) string {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, n, ext)
		if _, err := os.Stat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
	}
}

// moveFile renames src to dst, falling back to copy-and-remove when the spool
// and archive live on different filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
