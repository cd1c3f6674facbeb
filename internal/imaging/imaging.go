package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Stored 原图与缩略图文件名；宽度不超过阈值时缩略图复用原图
type Stored struct {
	Filename string
	Small    string
	Medium   string
}

// Size 缩略图档位
type Size struct {
	Name  string // small / medium
	Width uint
}

// LocalStore 保存上传文件到本地目录并生成等比缩放版本
type LocalStore struct {
	dir    string
	sizes  []Size
	encode func(w io.Writer, img image.Image, format string) error
}

// NewLocalStore sizes 形如 {"small": 400, "medium": 800}
func NewLocalStore(dir string, sizes map[string]int) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	s := &LocalStore{dir: dir, encode: encode}
	for name, w := range sizes {
		if w > 0 {
			s.sizes = append(s.sizes, Size{Name: name, Width: uint(w)})
		}
	}
	sort.Slice(s.sizes, func(i, j int) bool { return s.sizes[i].Width < s.sizes[j].Width })
	return s, nil
}

func (s *LocalStore) Dir() string { return s.dir }

// Save 以随机文件名落盘；originalName 只用于取扩展名
func (s *LocalStore) Save(originalName string, r io.Reader) (Stored, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		return Stored{}, ErrUnsupportedFormat
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return Stored{}, fmt.Errorf("read upload: %w", err)
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Stored{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	base := uuid.NewString()
	out := Stored{Filename: base + ext}
	if err := os.WriteFile(filepath.Join(s.dir, out.Filename), raw, 0o644); err != nil {
		return Stored{}, fmt.Errorf("write original: %w", err)
	}
	out.Small, out.Medium = out.Filename, out.Filename

	written := []string{out.Filename}
	for _, size := range s.sizes {
		name := out.Filename
		if uint(img.Bounds().Dx()) > size.Width {
			name = fmt.Sprintf("%s_%s%s", base, suffix(size.Name), ext)
			written = append(written, name)
			thumb := resize.Resize(size.Width, 0, img, resize.Lanczos3)
			if err := s.write(name, thumb, format); err != nil {
				return Stored{}, errors.Join(err, s.removeFiles(written))
			}
		}
		switch size.Name {
		case "small":
			out.Small = name
		case "medium":
			out.Medium = name
		}
	}
	return out, nil
}

func suffix(sizeName string) string {
	if sizeName == "" {
		return "x"
	}
	return sizeName[:1]
}

func (s *LocalStore) write(name string, img image.Image, format string) error {
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := s.encode(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return f.Close()
}

func encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "gif":
		return gif.Encode(w, img, nil)
	default:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 85})
	}
}

// Remove 删除原图及缩略图，文件不存在不算错误
func (s *LocalStore) Remove(stored Stored) error {
	return s.removeFiles([]string{stored.Filename, stored.Small, stored.Medium})
}

func (s *LocalStore) removeFiles(names []string) error {
	var errs []error
	seen := map[string]struct{}{}
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		if err := os.Remove(filepath.Join(s.dir, filepath.Base(name))); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
