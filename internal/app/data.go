package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vueblade/pkg/fastjson"

	"gopkg.in/yaml.v3"
)

// LoadDataFile reads render data from a .json, .yaml or .yml file. The
// document must be an object.
func LoadDataFile(path string) (map[string]interface{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = fastjson.Unmarshal(content, &data)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &data)
	default:
		return nil, fmt.Errorf("unsupported data file %s: want .json, .yaml or .yml", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return data, nil
}

// ViewData looks for <view>.json, <view>.yaml or <view>.yml next to the
// view file. A view without a data file renders with no variables.
func (a *AppContext) ViewData(name string) (map[string]interface{}, error) {
	viewPath, err := a.Views.Path(name)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(viewPath, ".blade.html")

	for _, ext := range []string{".json", ".yaml", ".yml"} {
		data, err := LoadDataFile(base + ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return data, err
	}
	return map[string]interface{}{}, nil
}
