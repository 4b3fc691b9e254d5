// Package filestore persists aggregates as a JSON file on disk.
//
// Writes go to a temp file in the target directory and are renamed into
// place. Before each write the previous file is copied into a backup
// directory; old backups are pruned by modification time.
//
// Import Path: archgraph.io/archgraph/internal/store/filestore
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/metrics"
	"archgraph.io/archgraph/internal/pkg/logger"
	"archgraph.io/archgraph/internal/pkg/worker"
	"archgraph.io/archgraph/internal/store"
	"archgraph.io/archgraph/internal/validation"
)

const (
	backend = "file"

	backupPrefix = "store-backup-"
	backupSuffix = ".json"

	// backupStampLayout is ISO 8601 in UTC with millisecond precision.
	backupStampLayout = "2006-01-02T15:04:05.000Z"

	// maxBackupSeq bounds the -N suffixes tried for backups sharing a stamp.
	maxBackupSeq = 1000
)

// Tenancy selects the on-disk layout.
type Tenancy string

const (
	// TenancySingle stores one aggregate; the file is the aggregate.
	TenancySingle Tenancy = "single"
	// TenancyMulti stores {userId: aggregate}.
	TenancyMulti Tenancy = "multi"
)

// Options configures a Store.
type Options struct {
	Path    string
	Tenancy Tenancy

	// BackupDir defaults to a "backups" directory next to Path.
	BackupDir string
	// MaxBackups is how many backups to keep. Zero disables backups.
	MaxBackups int

	// Pool runs pruning in the background when set.
	Pool *worker.Pool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Store is a file-backed store.Store.
type Store struct {
	opts Options

	// mu serializes file writes; it does not span a caller's load-modify-save.
	mu      sync.Mutex
	pending sync.WaitGroup
}

var _ store.Store = (*Store)(nil)

// New creates a Store. The file itself is created on first save.
func New(opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("filestore: path is required")
	}
	switch opts.Tenancy {
	case "":
		opts.Tenancy = TenancySingle
	case TenancySingle, TenancyMulti:
	default:
		return nil, fmt.Errorf("filestore: unknown tenancy %q", opts.Tenancy)
	}
	if opts.MaxBackups < 0 {
		return nil, fmt.Errorf("filestore: max backups must not be negative, got %d", opts.MaxBackups)
	}
	if opts.BackupDir == "" {
		opts.BackupDir = filepath.Join(filepath.Dir(opts.Path), "backups")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{opts: opts}, nil
}

// Load implements store.Store. A missing file is an empty aggregate.
func (s *Store) Load(_ context.Context, userID string) (domain.Aggregate, error) {
	agg, err := s.load(userID)
	metrics.ObserveStore(backend, "load", err)
	return agg, err
}

func (s *Store) load(userID string) (domain.Aggregate, error) {
	data, err := s.readFile()
	if err != nil {
		return nil, err
	}
	if s.opts.Tenancy == TenancySingle {
		return store.Decode(data)
	}
	tenants, err := validation.DecodeTenants(data)
	if err != nil {
		return nil, err
	}
	if agg, ok := tenants[store.TenantKey(userID)]; ok {
		return agg, nil
	}
	return domain.Aggregate{}, nil
}

// Save implements store.Store.
func (s *Store) Save(_ context.Context, userID string, agg domain.Aggregate) error {
	err := s.save(userID, agg)
	metrics.ObserveStore(backend, "save", err)
	return err
}

func (s *Store) save(userID string, agg domain.Aggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.encode(userID, agg)
	if err != nil {
		return err
	}
	return s.write(data)
}

// SaveTenants replaces the whole multi-tenant document.
func (s *Store) SaveTenants(tenants map[string]domain.Aggregate) error {
	if s.opts.Tenancy != TenancyMulti {
		return errors.New("filestore: SaveTenants requires multi tenancy")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encodeTenants(tenants)
	if err != nil {
		return err
	}
	return s.write(data)
}

// write backs up the current file, replaces it and prunes. Callers hold mu.
func (s *Store) write(data []byte) error {
	if s.opts.MaxBackups == 0 {
		return writeAtomic(s.opts.Path, data)
	}
	if err := s.backup(); err != nil {
		return err
	}
	if err := writeAtomic(s.opts.Path, data); err != nil {
		return err
	}
	s.schedulePrune()
	return nil
}

func (s *Store) encode(userID string, agg domain.Aggregate) ([]byte, error) {
	if s.opts.Tenancy == TenancySingle {
		return store.Encode(agg)
	}
	data, err := s.readFile()
	if err != nil {
		return nil, err
	}
	tenants, err := validation.DecodeTenants(data)
	if err != nil {
		return nil, err
	}
	tenants[store.TenantKey(userID)] = agg
	return encodeTenants(tenants)
}

func encodeTenants(tenants map[string]domain.Aggregate) ([]byte, error) {
	clean := make(map[string]domain.Aggregate, len(tenants))
	for key, agg := range tenants {
		v, err := validation.Revalidate(agg)
		if err != nil {
			return nil, err
		}
		clean[store.TenantKey(key)] = v
	}
	data, err := json.MarshalIndent(clean, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tenants: %w", err)
	}
	return data, nil
}

func (s *Store) readFile() ([]byte, error) {
	data, err := os.ReadFile(s.opts.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	return data, nil
}

// backup copies the current file into the backup directory. Nothing to copy
// is not an error.
func (s *Store) backup() error {
	data, err := os.ReadFile(s.opts.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store file for backup: %w", err)
	}
	if err := os.MkdirAll(s.opts.BackupDir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	now := s.opts.Now().UTC()
	path, err := writeBackup(s.opts.BackupDir, now, data)
	if err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	// Pruning orders by modification time; pin it to the stamp in the name.
	if err := os.Chtimes(path, now, now); err != nil {
		return fmt.Errorf("stamp backup: %w", err)
	}
	return nil
}

func (s *Store) schedulePrune() {
	if s.opts.Pool == nil {
		s.pruneAndLog()
		return
	}
	s.pending.Add(1)
	err := s.opts.Pool.SubmitDetached(func(context.Context) {
		defer s.pending.Done()
		s.pruneAndLog()
	})
	if err != nil {
		s.pending.Done()
		logger.Debug("Backup pruning not scheduled, running inline", zap.Error(err))
		s.pruneAndLog()
	}
}

func (s *Store) pruneAndLog() {
	removed, err := Prune(s.opts.BackupDir, s.opts.MaxBackups)
	if err != nil {
		logger.Warn("Backup pruning failed",
			zap.String("backup_dir", s.opts.BackupDir),
			zap.Error(err),
		)
		return
	}
	if removed > 0 {
		logger.Debug("Backups pruned",
			zap.String("backup_dir", s.opts.BackupDir),
			zap.Int("removed", removed),
		)
	}
}

// Wait blocks until scheduled pruning has finished.
func (s *Store) Wait() {
	s.pending.Wait()
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.opts.Path
}

// BackupDir returns the backup directory.
func (s *Store) BackupDir() string {
	return s.opts.BackupDir
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// BackupName is the backup file name for a save at t.
// ':' and '.' in the timestamp become '-' so the name is portable.
func BackupName(t time.Time) string {
	stamp := t.UTC().Format(backupStampLayout)
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return backupPrefix + stamp + backupSuffix
}

// writeBackup creates a new backup file for a save at t. A backup with the
// same stamp is never overwritten; the name gets a -1, -2... suffix instead.
func writeBackup(dir string, t time.Time, data []byte) (string, error) {
	base := strings.TrimSuffix(BackupName(t), backupSuffix)
	for seq := 0; seq < maxBackupSeq; seq++ {
		name := base + backupSuffix
		if seq > 0 {
			name = fmt.Sprintf("%s-%d%s", base, seq, backupSuffix)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		_, werr := f.Write(data)
		if err := errors.Join(werr, f.Close()); err != nil {
			_ = os.Remove(path)
			return "", err
		}
		return path, nil
	}
	return "", fmt.Errorf("no free backup name for %s", base)
}

// backupSeq is the collision suffix of a backup name, 0 when it has none.
func backupSeq(name string) int {
	stem := strings.TrimSuffix(name, backupSuffix)
	i := strings.LastIndex(stem, "Z-")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(stem[i+2:])
	if err != nil {
		return 0
	}
	return n
}

// Backup describes one backup file.
type Backup struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListBackups returns the backups in dir, newest first.
// A missing directory has no backups.
func ListBackups(dir string) ([]Backup, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Backup{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	backups := make([]Backup, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed concurrently
			continue
		}
		backups = append(backups, Backup{
			Name:    name,
			Path:    filepath.Join(dir, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].ModTime.Equal(backups[j].ModTime) {
			return backups[i].ModTime.After(backups[j].ModTime)
		}
		if si, sj := backupSeq(backups[i].Name), backupSeq(backups[j].Name); si != sj {
			return si > sj
		}
		return backups[i].Name > backups[j].Name
	})
	return backups, nil
}

// Prune deletes all but the keep newest backups in dir and reports how many
// were removed.
func Prune(dir string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	backups, err := ListBackups(dir)
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	removed := 0
	var errs []error
	for _, b := range backups[keep:] {
		if err := os.Remove(b.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
