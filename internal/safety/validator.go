package safety

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ErrInvalidPath    = errors.New("invalid path")
	ErrProtectedPath  = errors.New("protected path")
	ErrOutsideAllowed = errors.New("outside target folder")
	ErrTraversal      = errors.New("path traversal detected")
	ErrSymlinkEscape  = errors.New("symlink escape detected")
)

// Validator guards every trash operation
type Validator struct {
	AllowedRoots   []string
	ProtectedPaths []string
}

// NewValidator creates a validator with allowed roots and optional additional protected paths
func NewValidator(allowed []string, extraProtected []string) *Validator {
	return &Validator{
		AllowedRoots:   normalizeRoots(allowed),
		ProtectedPaths: defaultProtected(extraProtected),
	}
}

// ValidateName rejects list entries that would resolve outside their folder
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidPath
	}
	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return ErrOutsideAllowed
	}
	if DetectTraversal(name) {
		return ErrTraversal
	}
	return nil
}

// ValidateDeleteTarget authorizes a single trash operation
func (v *Validator) ValidateDeleteTarget(path string) error {
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}

	if IsProtectedPath(p, v.ProtectedPaths) {
		return ErrProtectedPath
	}

	if !IsWithinAllowedRoots(p, v.AllowedRoots) {
		return ErrOutsideAllowed
	}

	// The root itself is never a valid target
	for _, r := range v.AllowedRoots {
		if samePath(p, r) {
			return ErrOutsideAllowed
		}
	}

	if DetectTraversal(path) {
		return ErrTraversal
	}

	escaped, err := DetectSymlinkEscape(p, v.AllowedRoots)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if escaped {
		return ErrSymlinkEscape
	}

	return nil
}

// NormalizePath converts path to absolute, cleaned form
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// DetectTraversal blocks any ".." segment in raw input
func DetectTraversal(raw string) bool {
	parts := strings.Split(filepath.ToSlash(raw), "/")
	for _, p := range parts {
		if p == ".." {
			return true
		}
	}
	return false
}

// IsWithinAllowedRoots checks if path is within any allowed root
func IsWithinAllowedRoots(path string, allowedRoots []string) bool {
	p := filepath.Clean(path)
	for _, r := range allowedRoots {
		if hasPathPrefix(p, r) {
			return true
		}
	}
	return false
}

// DetectSymlinkEscape resolves the parent directory of cleanAbs and reports
// whether it lands outside the allowed roots. The final element is left
// alone: trashing a symlink moves the link, not what it points at.
func DetectSymlinkEscape(cleanAbs string, allowedRoots []string) (bool, error) {
	resolvedDir, err := filepath.EvalSymlinks(filepath.Dir(cleanAbs))
	if err != nil {
		return false, err
	}
	resolved, err := filepath.Abs(filepath.Join(resolvedDir, filepath.Base(cleanAbs)))
	if err != nil {
		return false, err
	}
	return !IsWithinAllowedRoots(filepath.Clean(resolved), resolvedRoots(allowedRoots)), nil
}

// IsProtectedPath checks if path matches protected system paths
func IsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)

	if isFilesystemRoot(p) {
		return true
	}

	for _, prot := range protected {
		prot = filepath.Clean(prot)
		if hasPathPrefix(p, prot) {
			return true
		}
	}
	return false
}

func isFilesystemRoot(p string) bool {
	vol := filepath.VolumeName(p)
	rest := strings.TrimPrefix(p, vol)
	return rest == string(os.PathSeparator) || (vol != "" && rest == "")
}

// foldCase makes path comparisons case-insensitive, as on Windows filesystems
var foldCase = runtime.GOOS == "windows"

func samePath(a, b string) bool {
	if foldCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// hasPathPrefix checks if path has the given prefix
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if isFilesystemRoot(prefix) {
		return samePath(path, prefix)
	}
	if samePath(path, prefix) {
		return true
	}
	return len(path) > len(prefix) &&
		path[len(prefix)] == os.PathSeparator &&
		samePath(path[:len(prefix)], prefix)
}

// normalizeRoots converts slice of roots to absolute, cleaned paths
func normalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		out = append(out, filepath.Clean(abs))
	}
	return out
}

// resolvedRoots follows symlinks in the roots themselves (e.g. /tmp -> /private/tmp)
func resolvedRoots(roots []string) []string {
	out := make([]string, 0, len(roots)*2)
	for _, r := range roots {
		out = append(out, r)
		if resolved, err := filepath.EvalSymlinks(r); err == nil && resolved != r {
			out = append(out, filepath.Clean(resolved))
		}
	}
	return out
}

// defaultProtected returns the base set of protected paths plus any extras
func defaultProtected(extra []string) []string {
	return append(baseProtected(runtime.GOOS), extra...)
}

// baseProtected lists system locations for goos. Filesystem roots are
// always refused by IsProtectedPath. On Windows only the system folder is
// listed: games are routinely installed under Program Files.
func baseProtected(goos string) []string {
	switch goos {
	case "windows":
		return []string{`C:\Windows`}
	default:
		return []string{
			"/",
			"/etc",
			"/bin",
			"/usr",
			"/boot",
			"/lib",
			"/lib64",
			"/sbin",
			"/System",
		}
	}
}
