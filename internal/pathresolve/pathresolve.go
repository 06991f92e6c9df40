// Package pathresolve maps source files to the paths used in doc records.
package pathresolve

import (
	"errors"
	"path"
	"path/filepath"
)

// Resolver resolves paths for one source file.
//
// Example:
//
//	r, _ := pathresolve.New("./src", "src/foo/bar.js", "foo-bar", "")
//	r.FilePath()          // "src/foo/bar.js"
//	r.ImportPath()        // "foo-bar/src/foo/bar.js"
//	r.Resolve("./baz.js") // "src/foo/baz.js"
type Resolver struct {
	inDir   string
	file    string
	pkgName string
	main    string
}

// New returns a Resolver for file under the source root inDir. Both are
// resolved against the working directory. pkgName and mainFile are optional
// and come from package.json.
func New(inDir, file, pkgName, mainFile string) (*Resolver, error) {
	if inDir == "" || file == "" {
		return nil, errors.New("pathresolve: source root and file path are required")
	}
	absIn, err := filepath.Abs(inDir)
	if err != nil {
		return nil, err
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	r := &Resolver{inDir: absIn, file: absFile, pkgName: pkgName}
	if mainFile != "" {
		if r.main, err = filepath.Abs(mainFile); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// FilePath returns the file's path relative to the parent of the source
// root, so it starts with the root's own name.
func (r *Resolver) FilePath() string {
	return r.relative(r.file)
}

// FullPath returns the absolute path of the file.
func (r *Resolver) FullPath() string {
	return filepath.ToSlash(r.file)
}

// ImportPath returns the path a consumer would import the file by: the
// package name for the main file, otherwise the file path prefixed with the
// package name or "./".
func (r *Resolver) ImportPath() string {
	if r.main != "" && r.main == r.file {
		return r.pkgName
	}
	if r.pkgName != "" {
		return path.Clean(r.pkgName + "/" + r.FilePath())
	}
	return "./" + r.FilePath()
}

// Resolve resolves a path relative to the file's directory and returns it
// in the same form as FilePath.
func (r *Resolver) Resolve(rel string) string {
	return r.relative(filepath.Join(filepath.Dir(r.file), filepath.FromSlash(rel)))
}

func (r *Resolver) relative(p string) string {
	rel, err := filepath.Rel(filepath.Dir(r.inDir), p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
