package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/hasher/archive"
	"github.com/byte4ever/hasher/digest"
	"github.com/byte4ever/hasher/hasher"
	"github.com/byte4ever/hasher/render"
)

var (
	errBadRequest    = errors.New("bad request")
	errLocalDisabled = errors.New("local paths are disabled")
)

type errorResponse struct {
	Error string `json:"error"`
}

type errorPage struct {
	Status  string
	Message string
}

// target is what a request asked to hash once uploads are on disk.
type target struct {
	path    string
	display string
	folder  bool
}

func (s *Server) handleHash(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", errBadRequest, err))

		return
	}

	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	algorithm := strings.TrimSpace(r.FormValue("algorithm"))
	if algorithm == "" {
		algorithm = digest.DefaultAlgorithm.String()
	}

	alg, err := digest.Resolve(algorithm)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	tg, cleanup, err := s.resolveTarget(r)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	defer cleanup()

	res, err := s.hash(tg, alg)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	if expected := strings.TrimSpace(r.FormValue("expected")); expected != "" {
		res = res.WithMatch(expected, hasher.Match(res.Digest, expected))
	}

	s.logger.Info(
		"hashed",
		"algorithm", res.Algorithm,
		"kind", res.Kind,
		"path", res.Path,
		"digest", res.Digest,
	)

	if wantsJSON(r) {
		s.json(w, http.StatusOK, res)

		return
	}

	s.page(w, http.StatusOK, "result", res)
}

func (s *Server) hash(tg target, alg digest.Algorithm) (render.Result, error) {
	res := render.Result{
		Algorithm: alg.String(),
		Path:      tg.display,
	}

	if !tg.folder {
		sum, err := hasher.HashFile(tg.path, res.Algorithm)
		if err != nil {
			return render.Result{}, err
		}

		res.Kind = hasher.KindFile.String()
		res.Digest = sum

		return res, nil
	}

	var last hasher.Status

	sink := hasher.ProgressFunc(func(st hasher.Status) {
		if st.FilesDone != last.FilesDone {
			s.logger.Debug(
				"progress",
				"path", st.Path,
				"files", st.FilesDone,
				"files_total", st.FilesTotal,
				"bytes", st.BytesDone,
				"bytes_total", st.BytesTotal,
			)
		}

		last = st
	})

	sum, err := hasher.HashFolder(tg.path, res.Algorithm, hasher.WithProgress(sink))
	if err != nil {
		return render.Result{}, err
	}

	res.Kind = hasher.KindFolder.String()
	res.Digest = sum
	res.Files = last.FilesDone
	res.Bytes = last.BytesDone

	return res, nil
}

// resolveTarget turns the request into something on disk. Uploads are
// staged in a temporary directory removed by cleanup.
func (s *Server) resolveTarget(r *http.Request) (target, func(), error) {
	noop := func() {}
	files := r.MultipartForm.File["files"]
	local := strings.TrimSpace(r.FormValue("path"))

	switch {
	case len(files) == 0 && local == "":
		return target{}, noop, fmt.Errorf("%w: no path or file given", errBadRequest)
	case len(files) > 0 && local != "":
		return target{}, noop, fmt.Errorf("%w: give a path or files, not both", errBadRequest)
	case local != "":
		if !s.cfg.AllowLocalPaths {
			return target{}, noop, errLocalDisabled
		}

		info, err := os.Stat(local)
		if errors.Is(err, fs.ErrNotExist) {
			return target{}, noop, fmt.Errorf("%w: %w", hasher.ErrNotFound, err)
		}

		if err != nil {
			return target{}, noop, fmt.Errorf("%w: %w", hasher.ErrIO, err)
		}

		return target{path: local, display: local, folder: info.IsDir()}, noop, nil
	}

	dir, err := os.MkdirTemp("", "hasher-upload-*")
	if err != nil {
		return target{}, noop, err
	}

	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("removing staging directory", "dir", dir, "error", err)
		}
	}

	tg, err := stage(
		dir, files, r.MultipartForm.Value["paths"], s.cfg.MaxExtractBytes,
	)
	if err != nil {
		cleanup()

		return target{}, noop, err
	}

	return tg, cleanup, nil
}

// stage writes uploads below dir. A single ZIP archive is expanded and
// hashed as a folder, a single file is hashed as a file, and several files
// form a folder named by paths when given, by their file names otherwise.
// An archive may expand to at most maxExtract bytes.
func stage(
	dir string,
	files []*multipart.FileHeader,
	paths []string,
	maxExtract int64,
) (target, error) {
	if len(files) == 1 && len(paths) == 0 {
		fh := files[0]

		if archive.IsZip(fh.Filename) {
			if err := extractUpload(fh, dir, maxExtract); err != nil {
				return target{}, fmt.Errorf("%w: %w", errBadRequest, err)
			}

			return target{path: dir, display: fh.Filename, folder: true}, nil
		}

		pa := filepath.Join(dir, "upload")
		if err := saveUpload(fh, pa); err != nil {
			return target{}, err
		}

		return target{path: pa, display: fh.Filename}, nil
	}

	if len(paths) != 0 && len(paths) != len(files) {
		return target{}, fmt.Errorf(
			"%w: %d paths for %d files",
			errBadRequest, len(paths), len(files),
		)
	}

	seen := make(map[string]struct{}, len(files))

	for i, fh := range files {
		name := filepath.Base(fh.Filename)
		if len(paths) != 0 {
			name = paths[i]
		}

		rel := filepath.FromSlash(name)
		if !filepath.IsLocal(rel) {
			return target{}, fmt.Errorf("%w: unsafe name %q", errBadRequest, name)
		}

		rel = filepath.Clean(rel)
		if _, dup := seen[rel]; dup {
			return target{}, fmt.Errorf("%w: duplicate name %q", errBadRequest, name)
		}

		seen[rel] = struct{}{}

		if err := saveUpload(fh, filepath.Join(dir, rel)); err != nil {
			return target{}, err
		}
	}

	return target{
		path:    dir,
		display: fmt.Sprintf("%d uploaded files", len(files)),
		folder:  true,
	}, nil
}

func extractUpload(
	fh *multipart.FileHeader,
	dir string,
	limit int64,
) (retErr error) {
	src, err := fh.Open()
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := src.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()

	return archive.ExtractReader(src, fh.Size, dir, limit)
}

func saveUpload(fh *multipart.FileHeader, dst string) (retErr error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := src.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // dst checked by stage
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := out.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()

	_, err = io.Copy(out, src)

	return err
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}

	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxErr), errors.Is(err, archive.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errLocalDisabled):
		return http.StatusForbidden
	case errors.Is(err, hasher.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, digest.ErrUnsupportedAlgorithm),
		errors.Is(err, hasher.ErrNotAFile),
		errors.Is(err, hasher.ErrNotADirectory),
		errors.Is(err, archive.ErrUnsafePath),
		errors.Is(err, archive.ErrDuplicateEntry):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	s.logger.Log(r.Context(), level, "hash request failed", "status", status, "error", err)

	if wantsJSON(r) {
		s.json(w, status, errorResponse{Error: err.Error()})

		return
	}

	s.page(w, status, "error", errorPage{
		Status:  http.StatusText(status),
		Message: err.Error(),
	})
}

func (s *Server) json(w http.ResponseWriter, status int, v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encoding response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(buf, '\n'))
}

func (s *Server) page(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("rendering page", "page", name, "error", err)
	}
}
