// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package corpus

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// imageExtensions lists the file extensions accepted as corpus samples.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// CollectImagePaths walks root recursively and returns the normalized paths
// of all image files beneath it, deduplicated with order preserved.
// filepath.WalkDir visits entries in lexical order, so the result is
// deterministic for a given directory tree. Unreadable subdirectories are
// skipped rather than failing the walk.
func CollectImagePaths(root string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		norm := filepath.Clean(path)
		if seen[norm] {
			return nil
		}
		seen[norm] = true
		paths = append(paths, norm)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}
