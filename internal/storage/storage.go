package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/artisan-upload/artisan/internal/models"
)

const (
	manifestPrefix = "artisan_data_"
	manifestSuffix = ".json"
	stagingWorkers = 4
)

var (
	ErrNotFound    = errors.New("manifest not found")
	ErrInvalidName = errors.New("invalid manifest name")
)

// Incoming is one uploaded file waiting to be persisted.
type Incoming struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// BytesIncoming wraps an in-memory payload.
func BytesIncoming(filename string, data []byte) Incoming {
	return Incoming{
		Filename: filename,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Submission is everything one artisan sent in a single request.
type Submission struct {
	Fields map[string]json.RawMessage
	Audio  *Incoming
	Images []Incoming
}

// Store persists media under the uploads directory and one manifest per
// submission under the data directory. Manifests are written once and cached.
type Store struct {
	uploadsDir string
	dataDir    string
	now        func() time.Time

	manifests map[string]*models.Manifest
	mu        sync.RWMutex
}

func New(uploadsDir, dataDir string) *Store {
	return &Store{
		uploadsDir: uploadsDir,
		dataDir:    dataDir,
		now:        time.Now,
		manifests:  make(map[string]*models.Manifest),
	}
}

func (s *Store) UploadsDir() string { return s.uploadsDir }

func (s *Store) DataDir() string { return s.dataDir }

func (s *Store) ensureDirs() error {
	if err := os.MkdirAll(s.uploadsDir, 0755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

type stagedFile struct {
	original string
	path     string
}

// SaveSubmission writes every file of sub and then its manifest.
//
// Files are first copied into a private staging directory, then moved to
// reserved final names. The manifest is written last; if anything fails,
// files already moved into place are removed again.
func (s *Store) SaveSubmission(ctx context.Context, sub Submission) (*models.SaveResponse, error) {
	if err := s.ensureDirs(); err != nil {
		return nil, err
	}

	staging, err := os.MkdirTemp(s.uploadsDir, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	parts := make([]Incoming, 0, len(sub.Images)+1)
	if sub.Audio != nil {
		parts = append(parts, *sub.Audio)
	}
	parts = append(parts, sub.Images...)

	staged := make([]stagedFile, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(stagingWorkers)
	for i, part := range parts {
		g.Go(func() error {
			path, err := stage(gctx, staging, i, part)
			if err != nil {
				return err
			}
			staged[i] = stagedFile{original: part.Filename, path: path}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	committed := make([]string, 0, len(staged))
	rollback := func() {
		for _, name := range committed {
			if err := os.Remove(filepath.Join(s.uploadsDir, name)); err != nil && !os.IsNotExist(err) {
				slog.Error("Unable to roll back media file", "file", name, "err", err)
			}
		}
	}

	for _, sf := range staged {
		name, err := s.commit(sf)
		if err != nil {
			rollback()
			return nil, err
		}
		committed = append(committed, name)
	}

	var audioFile *string
	images := committed
	if sub.Audio != nil {
		name := committed[0]
		audioFile = &name
		images = committed[1:]
	}
	images = append([]string{}, images...)

	manifest := models.NewManifest(sub.Fields, audioFile, images)
	filename, err := s.writeManifest(manifest)
	if err != nil {
		rollback()
		return nil, err
	}

	s.mu.Lock()
	s.manifests[filename] = manifest
	s.mu.Unlock()

	slog.Info("Submission saved", "manifest", filename, "images", len(images), "audio", audioFile != nil)

	return &models.SaveResponse{
		Message:   "Data saved successfully",
		Filename:  filename,
		AudioFile: audioFile,
		Images:    images,
	}, nil
}

func stage(ctx context.Context, dir string, index int, in Incoming) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := in.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %q: %w", in.Filename, err)
	}
	defer src.Close()

	path := filepath.Join(dir, fmt.Sprintf("%03d.part", index))
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to write staged file %q: %w", in.Filename, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close staged file %q: %w", in.Filename, err)
	}
	return path, nil
}

func (s *Store) commit(sf stagedFile) (string, error) {
	base := SanitizeFilename(sf.original)
	ts := s.now().UnixMilli()

	name := fmt.Sprintf("%d_%s", ts, base)
	final, err := reserve(s.uploadsDir, name)
	if errors.Is(err, fs.ErrExist) {
		name = fmt.Sprintf("%d_%s_%s", ts, shortID(), base)
		slog.Warn("Media name collision, using suffixed name", "file", name)
		final, err = reserve(s.uploadsDir, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to reserve media name: %w", err)
	}

	if err := os.Rename(sf.path, final); err != nil {
		os.Remove(final)
		return "", fmt.Errorf("failed to move %q into place: %w", sf.original, err)
	}
	return name, nil
}

func (s *Store) writeManifest(m *models.Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(s.dataDir, ".artisan_data_*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close manifest: %w", err)
	}

	ts := s.now().UnixMilli()
	filename := fmt.Sprintf("%s%d%s", manifestPrefix, ts, manifestSuffix)
	final, err := reserve(s.dataDir, filename)
	if errors.Is(err, fs.ErrExist) {
		filename = fmt.Sprintf("%s%d_%s%s", manifestPrefix, ts, shortID(), manifestSuffix)
		final, err = reserve(s.dataDir, filename)
	}
	if err != nil {
		return "", fmt.Errorf("failed to reserve manifest name: %w", err)
	}

	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(final)
		return "", fmt.Errorf("failed to move manifest into place: %w", err)
	}
	return filename, nil
}

// reserve creates an empty file so no concurrent writer can claim the name.
func reserve(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	return path, f.Close()
}

func shortID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SanitizeFilename reduces an uploaded filename to a safe base name.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "file"
	}
	return name
}

// Manifest returns one stored manifest by filename.
func (s *Store) Manifest(filename string) (*models.Manifest, error) {
	if !validManifestName(filename) {
		return nil, ErrInvalidName
	}

	s.mu.RLock()
	m, ok := s.manifests[filename]
	s.mu.RUnlock()
	if ok {
		return m, nil
	}

	data, err := os.ReadFile(filepath.Join(s.dataDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m = &models.Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, err)
	}

	s.mu.Lock()
	s.manifests[filename] = m
	s.mu.Unlock()
	return m, nil
}

// Manifests returns every stored manifest ordered by filename.
func (s *Store) Manifests() ([]models.ManifestEntry, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.ManifestEntry{}, nil
		}
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && validManifestName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	result := make([]models.ManifestEntry, 0, len(names))
	for _, name := range names {
		m, err := s.Manifest(name)
		if err != nil {
			slog.Warn("Skipping unreadable manifest", "file", name, "err", err)
			continue
		}
		result = append(result, models.ManifestEntry{Filename: name, Manifest: m})
	}
	return result, nil
}

func validManifestName(name string) bool {
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return strings.HasPrefix(name, manifestPrefix) && strings.HasSuffix(name, manifestSuffix)
}

// SaveAudio stores a recording received by the story endpoint under the
// audio subdirectory and returns its path.
func (s *Store) SaveAudio(name string, data []byte) (string, error) {
	dir := filepath.Join(s.uploadsDir, "audio")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}
	path := filepath.Join(dir, SanitizeFilename(name))
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// SaveStory stores the generated content of one recording.
func (s *Store) SaveStory(record *models.StoryRecord) error {
	dir := filepath.Join(s.dataDir, "stories")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create stories directory: %w", err)
	}
	data, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode story: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, SanitizeFilename(record.ID+".json")), data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
