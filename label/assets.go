package label

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/srwiley/oksvg"
	"golang.org/x/image/font/opentype"
)

// AssetMissingError reports a font or logo file that could not be opened.
type AssetMissingError struct {
	Path string
	Err  error
}

func (e *AssetMissingError) Error() string {
	return fmt.Sprintf("asset %s: %v", e.Path, e.Err)
}

func (e *AssetMissingError) Unwrap() error {
	return e.Err
}

// AssetConfig locates the font and logo files. Relative file names are
// resolved against Dir.
type AssetConfig struct {
	Dir          string `yaml:"asset_dir"`
	RegularFont  string `yaml:"regular_font"`
	SemiBoldFont string `yaml:"semibold_font"`
	Logo         string `yaml:"logo"`
}

// Assets are the parsed fonts and the logo source. They are read-only after
// LoadAssets returns and may be shared between goroutines.
type Assets struct {
	Regular  *opentype.Font
	SemiBold *opentype.Font
	logo     []byte
}

// LoadAssets reads and parses all three assets. Any missing file is an
// *AssetMissingError.
func LoadAssets(cfg AssetConfig) (*Assets, error) {
	if cfg.RegularFont == "" {
		cfg.RegularFont = "OpenSans-Regular.ttf"
	}
	if cfg.SemiBoldFont == "" {
		cfg.SemiBoldFont = "OpenSans-SemiBold.ttf"
	}
	if cfg.Logo == "" {
		cfg.Logo = "logo.svg"
	}

	regular, err := loadFont(resolve(cfg.Dir, cfg.RegularFont))
	if err != nil {
		return nil, err
	}
	semibold, err := loadFont(resolve(cfg.Dir, cfg.SemiBoldFont))
	if err != nil {
		return nil, err
	}

	logoPath := resolve(cfg.Dir, cfg.Logo)
	logo, err := os.ReadFile(logoPath)
	if err != nil {
		return nil, &AssetMissingError{Path: logoPath, Err: err}
	}
	if _, err := oksvg.ReadIconStream(bytes.NewReader(logo)); err != nil {
		return nil, fmt.Errorf("parse logo %s: %w", logoPath, err)
	}

	return NewAssets(regular, semibold, logo), nil
}

// NewAssets builds Assets from already parsed fonts and raw SVG logo bytes.
func NewAssets(regular, semibold *opentype.Font, logo []byte) *Assets {
	return &Assets{Regular: regular, SemiBold: semibold, logo: logo}
}

func loadFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &AssetMissingError{Path: path, Err: err}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

func resolve(dir, name string) string {
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
