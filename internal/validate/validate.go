package validate

import (
	"fmt"
	"os"
	"path/filepath"
)

// GridFile validates that given path is an existing grid file whose output
// can be written next to it
func GridFile(gridPath string) error {
	if !isFile(gridPath) {
		return fmt.Errorf("%s does not exist or is no file", gridPath)
	}

	return Directory(filepath.Dir(gridPath))
}

// Directory validates that given path is an existing directory
func Directory(dirPath string) error {
	if !isDirectory(dirPath) {
		return fmt.Errorf("%s does not exist or is no directory", dirPath)
	}
	return nil
}

// isFile tests wether given path exists and is a file
func isFile(filePath string) bool {
	file, err := os.Stat(filePath)
	if err != nil {
		return false
	}

	return !file.IsDir()
}

// isDirectory tests wether given path exists and is a directory
func isDirectory(dirPath string) bool {
	dir, err := os.Stat(dirPath)
	if err != nil {
		return false
	}

	return dir.IsDir()
}
