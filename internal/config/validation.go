package config

import (
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("dirpathAnyOS", validateDirPath)
}

// validateDirPath accepts any syntactically plausible directory path. The
// stock "dirpath" validator rejects valid Windows paths, so trash_dir and
// friends use this relaxed check instead.
func validateDirPath(fl validator.FieldLevel) bool {
	path := strings.TrimSpace(fl.Field().String())
	if path == "" {
		return true
	}
	return filepath.Clean(path) != ""
}
