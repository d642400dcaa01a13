// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// dockerfileName is the rendered recipe file written into the staging
// directory. It is excluded from the image via .dockerignore so the image
// filesystem matches the user's context exactly.
const dockerfileName = "pybox.Dockerfile"

// validateContext checks that the build context directory exists, is
// readable, and is not empty. Any failure maps to a CopyError.
func validateContext(contextDir string) error {
	info, err := os.Stat(contextDir)
	if err != nil {
		return &CopyError{Path: contextDir, Cause: err}
	}
	if !info.IsDir() {
		return &CopyError{Path: contextDir, Cause: fmt.Errorf("not a directory")}
	}

	entries, err := os.ReadDir(contextDir)
	if err != nil {
		return &CopyError{Path: contextDir, Cause: err}
	}
	if len(entries) == 0 {
		return &CopyError{Path: contextDir, Cause: fmt.Errorf("directory is empty")}
	}
	return nil
}

// validateManifest checks that the dependency manifest exists inside the
// context and is a readable regular file. A missing or unreadable manifest
// is a dependency failure, not a copy failure: the context staged fine, the
// install step cannot proceed.
func validateManifest(contextDir, manifest string) error {
	p := filepath.Join(contextDir, filepath.FromSlash(manifest))
	info, err := os.Stat(p)
	if err != nil {
		return &DependencyInstallError{Manifest: manifest, Cause: err}
	}
	if info.IsDir() {
		return &DependencyInstallError{Manifest: manifest, Cause: fmt.Errorf("is a directory, expected a file")}
	}
	f, err := os.Open(p)
	if err != nil {
		return &DependencyInstallError{Manifest: manifest, Cause: err}
	}
	return f.Close()
}

// stageContext copies the build context into a fresh staging directory and
// writes the rendered Dockerfile plus a .dockerignore excluding it. The
// returned cleanup removes the staging directory.
func stageContext(contextDir, dockerfile string) (string, func(), error) {
	stagingDir, err := os.MkdirTemp("", "pybox-build-")
	if err != nil {
		return "", nil, &CopyError{Path: contextDir, Cause: err}
	}
	cleanup := func() { _ = os.RemoveAll(stagingDir) }

	if err := copyDir(contextDir, stagingDir); err != nil {
		cleanup()
		return "", nil, &CopyError{Path: contextDir, Cause: err}
	}

	if err := os.WriteFile(filepath.Join(stagingDir, dockerfileName), []byte(dockerfile), 0o644); err != nil {
		cleanup()
		return "", nil, &CopyError{Path: contextDir, Cause: err}
	}

	ignore := dockerfileName + "\n.dockerignore\n"
	if err := os.WriteFile(filepath.Join(stagingDir, ".dockerignore"), []byte(ignore), 0o644); err != nil {
		cleanup()
		return "", nil, &CopyError{Path: contextDir, Cause: err}
	}

	return stagingDir, cleanup, nil
}

// copyDir recursively copies src into dst, preserving file modes.
// Symlinks are recreated as symlinks; special files are skipped.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm())
		case d.Type().IsRegular():
			return copyFile(p, target)
		default:
			return nil
		}
	})
}

// copyFile copies a single regular file, preserving its mode.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// contextDigest computes a stable digest over the context contents and the
// rendered Dockerfile. Identical inputs always produce the same digest, so
// rebuilds of an unchanged context resolve to the same image tag.
func contextDigest(contextDir, dockerfile string) (string, error) {
	type entry struct {
		rel  string
		path string
	}

	var files []entry
	err := filepath.WalkDir(contextDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(contextDir, p)
		if err != nil {
			return err
		}
		files = append(files, entry{rel: filepath.ToSlash(rel), path: p})
		return nil
	})
	if err != nil {
		return "", &CopyError{Path: contextDir, Cause: err}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })

	h := sha256.New()
	h.Write([]byte(dockerfile))
	for _, f := range files {
		fmt.Fprintf(h, "\x00%s\x00", f.rel)
		in, err := os.Open(f.path)
		if err != nil {
			return "", &CopyError{Path: f.path, Cause: err}
		}
		if _, err := io.Copy(h, in); err != nil {
			in.Close()
			return "", &CopyError{Path: f.path, Cause: err}
		}
		in.Close()
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// shortDigest returns the tag-friendly prefix of a full digest.
func shortDigest(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}

// sanitizeContextName derives a readable tag component from a context path.
func sanitizeContextName(contextDir string) string {
	base := strings.ToLower(filepath.Base(filepath.Clean(contextDir)))
	var sb strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	s := strings.Trim(sb.String(), "-._")
	if s == "" {
		return "context"
	}
	return s
}
