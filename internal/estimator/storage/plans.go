package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ============================================================
// Plan File Storage
// ============================================================

var ErrPlanNotFound = errors.New("plan file not found")

// PlanStorage хранит исходные файлы планов: {root}/{projectID}/pages/{pageID}.{ext}
type PlanStorage struct {
	root string
}

func NewPlanStorage(root string) *PlanStorage {
	return &PlanStorage{root: root}
}

func (s *PlanStorage) ProjectDir(projectID string) string {
	return filepath.Join(s.root, safeName(projectID))
}

func (s *PlanStorage) PagesDir(projectID string) string {
	return filepath.Join(s.ProjectDir(projectID), "pages")
}

func (s *PlanStorage) PlanPath(projectID, pageID, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	return filepath.Join(s.PagesDir(projectID), safeName(pageID)+"."+ext)
}

func (s *PlanStorage) EnsurePagesDir(projectID string) error {
	if err := os.MkdirAll(s.PagesDir(projectID), 0o755); err != nil {
		return fmt.Errorf("mkdir pages dir: %w", err)
	}
	return nil
}

// SavePlan перезаписывает план страницы. Расширение берётся из имени загруженного файла.
func (s *PlanStorage) SavePlan(projectID, pageID, filename string, data []byte) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".svg"
	}
	if err := s.EnsurePagesDir(projectID); err != nil {
		return "", err
	}
	target := s.PlanPath(projectID, pageID, ext)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write plan: %w", err)
	}
	return target, nil
}

// FindPlan ищет сохранённый план страницы с любым расширением.
func (s *PlanStorage) FindPlan(projectID, pageID string) (string, error) {
	pattern := filepath.Join(s.PagesDir(projectID), safeName(pageID)+".*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ErrPlanNotFound
	}
	return matches[0], nil
}

// safeName не даёт выйти за пределы root через идентификатор.
func safeName(id string) string {
	id = filepath.Base(filepath.Clean("/" + id))
	if id == "/" || id == "." || id == "" {
		return "_"
	}
	return id
}
